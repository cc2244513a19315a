package growthbook

import "net/http"

// APIHosts bundles the host/path configuration an Instance exposes for
// building feature-fetch, remote-eval and streaming requests (spec §6).
type APIHosts struct {
	APIHost           string
	FeaturesPath      string
	RemoteEvalHost    string
	RemoteEvalPath    string
	StreamingHost     string
	StreamingPath     string
	APIRequestHeaders http.Header
}

// Instance is the fixed capability set the repository requires from an SDK
// instance (spec §1, §6). The repository never evaluates features itself;
// it only reads instance configuration and pushes new payloads into the
// instance via the setters below. Implementations are provided by the SDK
// instance, not by this package — see the demo package for a minimal
// reference implementation used in examples and tests.
type Instance interface {
	// GetAPIInfo returns the (apiHost, clientKey) pair that identifies the
	// instance's local-eval repository key.
	GetAPIInfo() (apiHost, clientKey string)

	// GetAPIHosts returns the full host/path configuration used to build
	// fetch, remote-eval, and streaming request URLs. For streaming only
	// StreamingHost is read: the stream URL is always
	// <host>/sub/<clientKey>, and StreamingPath is not used.
	GetAPIHosts() APIHosts

	// GetClientKey returns the client key used to authenticate with the
	// remote feature API.
	GetClientKey() string

	// IsRemoteEval reports whether this instance evaluates features on the
	// server rather than locally; remote-eval instances partition their
	// repository key by user ID and POST attributes on every fetch.
	IsRemoteEval() bool

	// GetUserID returns the user identifier used to partition the
	// repository key and request body for remote-eval instances.
	GetUserID() string

	// GetAttributes returns the attributes to send in a remote-eval
	// request body.
	GetAttributes() map[string]interface{}

	// SetFeatures installs a new set of plaintext feature definitions.
	SetFeatures(features map[string]interface{})
	// SetEncryptedFeatures decrypts cipherText (optionally with an explicit
	// key and a non-default subtle-crypto shim) and installs the result.
	SetEncryptedFeatures(cipherText string, key string, subtle SubtleCrypto) error
	// GetFeatures returns the instance's current feature definitions.
	GetFeatures() map[string]interface{}

	// SetExperiments installs a new set of plaintext experiment
	// definitions.
	SetExperiments(experiments []interface{})
	// SetEncryptedExperiments decrypts cipherText and installs the result.
	SetEncryptedExperiments(cipherText string, key string, subtle SubtleCrypto) error
	// GetExperiments returns the instance's current experiment
	// definitions.
	GetExperiments() []interface{}

	// Log is a diagnostic sink; the repository calls it whenever decrypting
	// or parsing a payload for this instance fails. There is no
	// production/non-production distinction.
	Log(msg string, ctx map[string]interface{})
}
