// Package secs lets scripted systems run inside an ECS tick loop against
// resources they name at runtime.
//
// SECS is a bridge between a typed resource store and a single embedded
// Lua interpreter. It provides:
//   - A resource table mapping script-facing names to resource types
//   - A capability table narrowing typed resources into script-safe views
//   - Per-unit accessors declaring reads and writes up front
//   - Dynamic fetch of exactly the declared resources each tick
//   - Script units that borrow the interpreter over a rendezvous channel
//
// # Quick Start
//
//	type Counter float64
//
//	var counter Counter
//
//	mngr := secs.NewBuilder().
//	    Resource("counter", &counter, secs.Number[Counter]()).
//	    Script("counter.lua", `
//	        system {
//	            name = "count",
//	            writes = { "counter" },
//	            run = function(bundle)
//	                bundle:write("counter", bundle:read("counter") + 1)
//	            end,
//	        }
//	    `).
//	    Init()
//	defer mngr.Shutdown()
//
// # Scripts
//
// A chunk declares systems by calling the global system function:
//
//	system {
//	    name   = "gravity",          -- optional, defaults to chunk#n
//	    stage  = "default",          -- before, default or after
//	    reads  = { "gravity", "delta_time" },
//	    writes = { "velocity" },
//	    run    = function(bundle) end,
//	}
//
// The bundle passed to run is only valid during that call. bundle:read(key)
// and bundle:write(key, value) accept a resource name or a 1-based position.
// Read positions count the declared reads followed by the declared writes;
// write positions count the writes only. With reads = { "a" } and
// writes = { "b" }, bundle:read(2) and bundle:write(1, v) both address "b".
// bundle:read() with no key returns every visible value keyed by name.
//
// # Native Systems
//
// Native systems declare resources via struct tags:
//
//	type Integrate struct {
//	    Delta    *secs.DeltaTime `secs:"res"`
//	    Velocity *Velocity       `secs:"res,mut"`
//	}
//
// # Tag Reference
//
//	secs:"res"     Shared resource
//	secs:"res,mut" Exclusive resource
package secs

// Version is the SECS version.
const Version = "1.0.0"
