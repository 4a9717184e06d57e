/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package edgecfg

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// IpcInfo is one locally-configured camera.
type IpcInfo struct {
	IP   string `json:"ip"`
	Mac  string `json:"mac"`
	Name string `json:"name"`
}

// State is the edge's persistent local state: the cameras an operator has
// pinned, keyed by IP.  Mutations rewrite the backing file atomically.
type State struct {
	sync.Mutex
	path string
	Ipcs map[string]IpcInfo `json:"ipcs"`
}

// LoadState reads the state file at path, or returns empty state if the
// file does not exist yet.
func LoadState(path string) (*State, error) {
	s := &State{
		path: path,
		Ipcs: make(map[string]IpcInfo),
	}

	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "reading edge state")
	}

	if err = json.Unmarshal(data, s); err != nil {
		return nil, errors.Wrapf(err, "parsing edge state %s", path)
	}
	if s.Ipcs == nil {
		s.Ipcs = make(map[string]IpcInfo)
	}
	return s, nil
}

func (s *State) save() error {
	data, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return errors.Wrap(err, "encoding edge state")
	}

	dir := filepath.Dir(s.path)
	tmp, err := ioutil.TempFile(dir, ".state-*")
	if err != nil {
		return errors.Wrap(err, "creating state temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing state temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing state temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "renaming state file")
}

// SetIpc inserts or replaces the camera record keyed by info.IP.
func (s *State) SetIpc(info IpcInfo) error {
	if info.IP == "" {
		return errors.New("ipc record needs an ip")
	}
	s.Lock()
	defer s.Unlock()
	s.Ipcs[info.IP] = info
	return s.save()
}

// DelIpc removes the camera record for ip.  Removing an absent record is
// not an error.
func (s *State) DelIpc(ip string) error {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.Ipcs[ip]; !ok {
		return nil
	}
	delete(s.Ipcs, ip)
	return s.save()
}
