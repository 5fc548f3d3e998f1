// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package supervisor provides Suture-based process supervision for the
ReelMatch server.

The tree has two layers under the root:

	reelmatch (root)
	├── engine-layer   similarity cache warmer
	└── api-layer      HTTP server

A crashing service is restarted with exponential backoff. Failures in the
engine layer do not stop the API layer; requests keep being served and
build the similarity matrix on demand.

Supervisor events are logged through sutureslog with the zerolog-backed
slog handler from the logging package:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddEngineService(services.NewWarmService(engine, warmCfg))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
