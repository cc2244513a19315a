// Package demo contains a minimal reference SDK-instance implementation
// used to exercise the growthbook feature repository in examples and
// integration tests; it does not evaluate features itself.
package demo

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ate-darren/growthbook"
)

// Instance is a minimal growthbook.Instance: it stores whatever feature and
// experiment definitions the repository pushes into it, without evaluating
// them. Each Instance gets a random user ID at construction, matching how a
// remote-eval SDK instance would identify itself to the feature API.
type Instance struct {
	mu            sync.RWMutex
	apiHost       string
	clientKey     string
	remoteEval    bool
	userID        string
	decryptionKey string
	attributes    map[string]interface{}
	features      map[string]interface{}
	experiments   []interface{}
	logs          []string
}

// New constructs an Instance pointed at apiHost/clientKey. If remoteEval is
// true, the instance partitions its repository key by a freshly generated
// user ID and sends attributes in every remote-eval request. decryptionKey
// may be empty if the instance's payloads are never encrypted.
func New(apiHost, clientKey string, remoteEval bool, attributes map[string]interface{}, decryptionKey string) *Instance {
	return &Instance{
		apiHost:       apiHost,
		clientKey:     clientKey,
		remoteEval:    remoteEval,
		userID:        uuid.NewString(),
		attributes:    attributes,
		decryptionKey: decryptionKey,
	}
}

func (i *Instance) GetAPIInfo() (apiHost, clientKey string) {
	return i.apiHost, i.clientKey
}

func (i *Instance) GetAPIHosts() growthbook.APIHosts {
	return growthbook.APIHosts{APIHost: i.apiHost}
}

func (i *Instance) GetClientKey() string { return i.clientKey }

func (i *Instance) IsRemoteEval() bool { return i.remoteEval }

func (i *Instance) GetUserID() string { return i.userID }

func (i *Instance) GetAttributes() map[string]interface{} { return i.attributes }

func (i *Instance) SetFeatures(features map[string]interface{}) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.features = features
}

func (i *Instance) SetEncryptedFeatures(cipherText, key string, subtle growthbook.SubtleCrypto) error {
	if key == "" {
		key = i.decryptionKey
	}
	plain, err := decrypt(cipherText, key, subtle)
	if err != nil {
		return err
	}
	var features map[string]interface{}
	if err := jsonUnmarshal(plain, &features); err != nil {
		return err
	}
	i.SetFeatures(features)
	return nil
}

func (i *Instance) GetFeatures() map[string]interface{} {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.features
}

func (i *Instance) SetExperiments(experiments []interface{}) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.experiments = experiments
}

func (i *Instance) SetEncryptedExperiments(cipherText, key string, subtle growthbook.SubtleCrypto) error {
	if key == "" {
		key = i.decryptionKey
	}
	plain, err := decrypt(cipherText, key, subtle)
	if err != nil {
		return err
	}
	var experiments []interface{}
	if err := jsonUnmarshal(plain, &experiments); err != nil {
		return err
	}
	i.SetExperiments(experiments)
	return nil
}

func (i *Instance) GetExperiments() []interface{} {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.experiments
}

func (i *Instance) Log(msg string, ctx map[string]interface{}) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.logs = append(i.logs, fmt.Sprintf("%s %v", msg, ctx))
}

// Logs returns every message recorded via Log, for test assertions.
func (i *Instance) Logs() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]string, len(i.logs))
	copy(out, i.logs)
	return out
}
