// Package demo contains small applications built on the frap runtime,
// used by the CLI and by the conformance scenarios:
//
//   - echo: view lines overwrite a field
//   - toggle: a click toggle, a host driver and a derived field
//   - pingpong: two drivers feeding each other through feedback edges
//
// Every app takes its view events as text lines.
package demo
