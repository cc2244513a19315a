package growthbook

import "strings"

// RepositoryKey names a feature source from the viewpoint of one SDK
// instance. Two instances that compute the same RepositoryKey are
// interchangeable consumers for caching and streaming purposes: they share
// one cache entry, one in-flight fetch, and one streaming channel.
type RepositoryKey string

// keySeparator joins the fields that make up a RepositoryKey. It must never
// appear inside an apiHost, clientKey, or userID value for the key to stay
// unambiguous; in practice none of those ever contain "||".
const keySeparator = "||"

// makeKey builds the RepositoryKey for an instance that evaluates locally:
// apiHost and clientKey identify the feature source.
func makeKey(apiHost, clientKey string) RepositoryKey {
	return RepositoryKey(strings.TrimRight(apiHost, "/") + keySeparator + clientKey)
}

// makeRemoteEvalKey builds the RepositoryKey for an instance that evaluates
// remotely: the cache additionally partitions by userID, since the server
// computes per-user results.
func makeRemoteEvalKey(apiHost, clientKey, userID string) RepositoryKey {
	return RepositoryKey(strings.TrimRight(apiHost, "/") + keySeparator + clientKey + keySeparator + userID)
}

// keyFor computes the RepositoryKey for an Instance, taking remote-eval mode
// into account (spec §3).
func keyFor(inst Instance) RepositoryKey {
	apiHost, clientKey := inst.GetAPIInfo()
	if inst.IsRemoteEval() {
		return makeRemoteEvalKey(apiHost, clientKey, inst.GetUserID())
	}
	return makeKey(apiHost, clientKey)
}
