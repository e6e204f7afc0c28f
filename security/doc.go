// Package security seals stored session payloads with an application key.
package security
