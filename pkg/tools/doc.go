// Package tools locates and runs the optional external processors of an
// install run: a JavaScript minifier and the brotli compressor.
//
// Probing happens once per run and yields a types.ToolAvailability that
// every later decision reads. A tool that cannot be found is not an
// error; the installer falls back to copying or skips the stage for all
// assets alike. Invocations are synchronous and have no timeout.
package tools
