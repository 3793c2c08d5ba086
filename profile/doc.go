// Package profile starts runtime profiling of the nib interpreter using
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the pprof build tag. Without it,
// [Modes] is empty and [Config.Start] returns a profiler that does nothing.
//
//	stop, err := profile.New(profile.WithMode("cpu"), profile.WithPath(dir)).Start()
//	if err != nil {
//		return err
//	}
//	defer stop.Stop()
//
// Each mode writes one file named after it, such as cpu.pprof or
// mem.pprof, to the configured directory. Inspect it with:
//
//	go tool pprof -http=: ./nib cpu.pprof
//
// The nib command exposes the same settings as --pprof-mode and
// --pprof-dir when built with:
//
//	go build -tags pprof .
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
