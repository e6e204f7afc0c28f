// Package core contains the credential, session and configuration contracts
// shared by the signing, authorization, transport and verification packages.
// Core must not depend on any of them.
package core
