// Package supervisor spawns and tracks package-manager jobs on behalf of
// the UI. Each job is keyed by (tab, script); the registry enforces that at
// most one job per key is alive at any instant.
//
// Full process-group termination is only guaranteed on Linux and macOS,
// where jobs are started in their own process group and killed by group.
// On Windows only the direct child is terminated; grandchildren such as dev
// servers spawned by npm may keep running and must be cleaned up through
// the port tooling instead.
package supervisor
