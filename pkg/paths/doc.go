// Package paths resolves the paths that appear in a deploy configuration.
//
// Every relative path in a configuration file is relative to the directory
// containing that file, not to the process working directory. Rather than
// keeping that directory in shared state, callers build a Resolver for it
// and pass the Resolver along:
//
//	r := paths.NewResolver("/srv/builds")
//	r.Resolve("out/web")        // /srv/builds/out/web
//	r.Resolve(`..\shared`)      // /srv/shared
//	r.Resolve("~/backups")      // /home/user/backups
//	r.Resolve("${DEPLOY_ROOT}") // value of DEPLOY_ROOT, made absolute
//
// Backslashes are treated as separators so configurations written on
// Windows keep working elsewhere.
package paths
