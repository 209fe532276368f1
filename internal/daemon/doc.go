// Package daemon coordinates the long-running reelhouse process.
//
// It wires configuration, the job store and the conversion worker into a
// single lifecycle with flock-based locking so only one worker drains a data
// directory. Start sweeps Running rows left behind by an unclean exit back to
// Pending before the worker begins polling.
//
// Keep orchestration logic here: conversion semantics live in the conversion
// and workflow packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
