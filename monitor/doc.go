// Package monitor periodically confirms that stored sessions are still
// accepted by the API.
//
// A sweep is started at most once per VerificationInterval, or sooner when
// the UTC calendar day changed since the previous sweep. Sweeps run on a
// core.WorkScheduler so callers on the foreground path never block.
package monitor
