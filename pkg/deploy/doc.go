// Package deploy implements the deploy pipeline.
//
// Each copy rule of a configuration moves through the same phases, strictly
// in order and one rule at a time:
//
//  1. Stage: the scratch directory is recreated and the source is copied
//     into it. Directory sources are copied recursively. Zip sources are
//     extracted; when the archive holds a single top-level directory and
//     no top-level files, that directory's contents become the scratch root.
//  2. Substitute: every replace rule is applied, in order, to every staged
//     file whose extension passes the filter. Rules cascade.
//  3. Backup: when the destination exists and the backup folder exists, the
//     destination is zipped to <name>_<yyyy_MM_dd_HHmmss>.zip in the backup
//     folder.
//  4. Clear: the destination's contents are deleted; the directory stays.
//  5. Publish: the destination is created if needed and the scratch contents
//     are copied in.
//  6. Cleanup: the scratch directory is removed.
//
// The first error aborts the run; later rules are skipped. Nothing is rolled
// back, so a rule that fails during Publish leaves its destination cleared
// but only partly populated. The zip backup is the only way back.
//
// In dry-run mode Stage and Substitute run for real inside the scratch
// directory, Backup/Clear/Publish are only reported, and Cleanup still runs.
package deploy
