// Package maven resolves coordinates against Maven layout HTTP repositories.
//
// Artifacts are downloaded into a local cache directory laid out like a Maven
// repository and reused on later builds. Repositories are tried in the order
// the descriptor declares them; the first one that has the artifact wins.
// Downloads of one resolve call run concurrently up to a configurable limit.
//
// Only the requested artifacts are fetched. Reading POM files for transitive
// dependencies is left to the descriptor: every library the build needs is
// declared explicitly.
package maven
