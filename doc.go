// Package sovereign provides exclusive, revocable custody of in-memory
// resources with violation detection.
//
// Sovereign is a Go library that centralizes ownership of shared
// resources behind a guarded registry. A resource placed under guard is
// only reachable through generation-stamped handles; direct access is
// replaced by scoped borrow callbacks, and the registry retains the
// authority to destroy any resource at any time, even while handles to
// it are still circulating.
//
// # Key Features
//
//   - Exclusive custody: resources live inside the registry, handles
//     are copyable tickets that can go stale but never dangle
//   - Scoped borrows: read and write access happens inside callbacks
//     that check in as visitors and always check out
//   - Force kill: the registry can destroy a resource immediately; a
//     borrow caught in flight is a sovereignty violation and the
//     offending process is terminated by a configurable discipline
//   - Generation stamping: a reused slot never honors an old handle
//   - Single-resource wardens for guarding one value without a registry
//   - OpenTelemetry integration for metrics and tracing
//   - Immutable audit logging of lifecycle events
//
// # Basic Usage
//
//	reg := sovereign.NewRegistry[Session]()
//	defer reg.Close()
//
//	h, err := reg.Register(Session{User: "alice"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	count, err := sovereign.View(h, "count_tabs", func(s *Session) int {
//	    return len(s.Tabs)
//	})
//
//	reg.ForceKill(h)
//
// # With Configuration
//
//	cfg, _ := sovereign.LoadConfig("/etc/sovereign/sovereign.yaml")
//	opts, cleanup, _ := sovereign.OptionsFromConfig(cfg, logger)
//	defer cleanup()
//
//	reg := sovereign.NewRegistry[Session](opts...)
//
// # Violation Model
//
// Violations are never returned as errors. A process observed inside a
// resource that has been killed, or killing a resource that still has
// visitors inside, is handed to the configured Discipline, which does
// not return. Stale handles, by contrast, are a normal condition and
// produce ErrResourceNotFound.
//
// # File I/O
//
// All file operations use github.com/victoralfred/gowritter/safepath
// for secure path handling. Direct use of os.ReadFile, os.WriteFile,
// os.Open, os.Create, or io/ioutil is prohibited within this library.
//
// # Package Structure
//
//   - sovereign: Main entry point and convenience functions
//   - guard: Core Registry, Handle, Warden, and Lease types
//   - discipline: Violation handling strategies
//   - observability: OpenTelemetry metrics and audit logging
//   - hooks: Extension points for custom behavior
//   - config: Configuration management
package sovereign
