// Package session carries launch configuration from the launcher process into
// the loader running inside the host process.
//
// The two processes share nothing but the environment and the filesystem, so
// a Session travels as JSON through two transports:
//   - the DISCORD_LOADER_SESSION environment variable set on the spawned process
//   - loader/temp/session.json, written at launch and deleted when read
//
// A third file, loader/temp/lastsession.json, is written when the loader exits
// with a profile set. The host application relaunches itself after updating
// without going through the launcher, and that relaunch recovers its session
// from this file. Every file transport is consumed at most once.
//
// Inside the loader, the session is published through Registry, a write-once
// Cell that hands out copies.
package session
