// Package service runs combat sessions on top of the tracker domain.
//
// Each session keeps its roster, cycle engine and history in memory behind a
// session mutex, loads them lazily from the store on first use and writes
// every change back. A rejected write is reported to the caller and to live
// subscribers as a storage.WriteError; the in-memory session keeps the change.
package service
