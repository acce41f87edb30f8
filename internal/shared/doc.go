// Package shared holds helpers used across the pipeline packages that do not
// belong to any one stage.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and AssertLogged for asserting on structured logs
//   - WriteWorkbook and ReadSheet for generating and inspecting Excel fixtures
//   - WritePipelineFixtures, a complete input tree for end-to-end runs
//
// Example usage:
//
//	func TestStage(t *testing.T) {
//	    dir := t.TempDir()
//	    testutil.WritePipelineFixtures(t, testutil.DefaultPipelineInputs(dir))
//	    logger, handler := testutil.NewTestLogger(t)
//	    // run the stage, then
//	    testutil.AssertLogged(t, handler, slog.LevelInfo, "output_written")
//	}
package shared
