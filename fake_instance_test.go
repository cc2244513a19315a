package growthbook

import "sync"

// fakeInstance is a minimal, test-only Instance that records every call the
// repository makes into it, grounded on the teacher's own Client test
// doubles (repository_test.go) but generalized to the new Instance surface.
type fakeInstance struct {
	mu          sync.Mutex
	apiHost     string
	clientKey   string
	remoteEval  bool
	userID      string
	attributes  map[string]interface{}
	hosts       *APIHosts
	decryptionKey string

	features    map[string]interface{}
	experiments []interface{}
	logs        []string
}

func (f *fakeInstance) GetAPIInfo() (string, string) { return f.apiHost, f.clientKey }

func (f *fakeInstance) GetAPIHosts() APIHosts {
	if f.hosts != nil {
		return *f.hosts
	}
	return APIHosts{APIHost: f.apiHost}
}

func (f *fakeInstance) GetClientKey() string                  { return f.clientKey }
func (f *fakeInstance) IsRemoteEval() bool                     { return f.remoteEval }
func (f *fakeInstance) GetUserID() string                      { return f.userID }
func (f *fakeInstance) GetAttributes() map[string]interface{}  { return f.attributes }

func (f *fakeInstance) SetFeatures(features map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.features = features
}

func (f *fakeInstance) SetEncryptedFeatures(cipherText, key string, subtle SubtleCrypto) error {
	if subtle == nil {
		subtle = defaultSubtleCrypto{}
	}
	if key == "" {
		key = f.decryptionKey
	}
	plain, err := subtle.Decrypt(cipherText, key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.features = map[string]interface{}{"_raw": plain}
	return nil
}

func (f *fakeInstance) GetFeatures() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.features
}

func (f *fakeInstance) SetExperiments(experiments []interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.experiments = experiments
}

func (f *fakeInstance) SetEncryptedExperiments(cipherText, key string, subtle SubtleCrypto) error {
	if subtle == nil {
		subtle = defaultSubtleCrypto{}
	}
	if key == "" {
		key = f.decryptionKey
	}
	plain, err := subtle.Decrypt(cipherText, key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.experiments = []interface{}{plain}
	return nil
}

func (f *fakeInstance) GetExperiments() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.experiments
}

func (f *fakeInstance) Log(msg string, ctx map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, msg)
}
