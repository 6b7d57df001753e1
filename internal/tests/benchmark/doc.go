// Package benchmark measures the hot paths of a draft: encoding and
// validating the form, and writing it through each storage backend.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare backends only:
//
//	go test -bench=BenchmarkBackend -benchmem ./internal/tests/benchmark/...
package benchmark
