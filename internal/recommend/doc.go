// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package recommend implements a content-similarity movie recommender.
//
// # Architecture
//
// A request flows through these stages:
//
//   - Catalog: the ordered movie snapshot fetched from a CatalogSource.
//     Position i is row and column i of the similarity matrix.
//   - Vectorizer: TF-IDF over title, genre and description, with English
//     stop words removed and rows L2-normalized.
//   - SimilarityMatrix: dense pairwise cosine similarity, symmetric with a
//     unit diagonal, validated at construction.
//   - SimilarityCache: persists the matrix between invocations so it is
//     only rebuilt on a miss.
//   - Ranker: top neighbours of each liked movie, merged and ordered by
//     aggregated score.
//   - Popularity fallback: most liked movies when the ranker finds nothing.
//
// # Failure Policy
//
// Every upstream failure degrades to the next tier and finally to an empty
// result. An unreadable cache triggers recomputation. A failed cache write is
// logged and the computed matrix is still used. Liked IDs missing from the
// catalog are skipped.
//
// # Cache Trust
//
// With Cache.TrustCache enabled (the default) a cached matrix is served even
// if the catalog fingerprint changed since it was computed; a warning is
// logged and the result is marked stale. Disable it to recompute whenever
// the catalog changes. A matrix whose size differs from the catalog is never
// served.
//
// # Scalability
//
// The matrix is n×n in the catalog size, so memory and build time grow
// quadratically. Build.Workers parallelizes row computation but does not
// change the ceiling.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	engine.SetCatalogSource(db)
//	engine.SetInteractionSource(db)
//	engine.SetCache(storage.NewFileStore(dir, "similarity"))
//
//	res, err := engine.RecommendForUser(ctx, userID)
package recommend
