package audio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type presetMetaJSON struct {
	Name string `json:"name"`
}
type presetMetaListJSON struct {
	Items []presetMetaJSON `json:"items"`
}
type presetMeta struct {
	name string
}
type presetData struct {
	list []*presetMeta
}

// presetManager reads parameter sets from a directory holding
// _list.json and one <name>.json per preset.
type presetManager struct {
	dir  string
	data *presetData
}

func newPresetManager(dir string) *presetManager {
	return &presetManager{
		dir: dir,
	}
}

func (pm *presetManager) getList() ([]*presetMeta, error) {
	if pm.data == nil {
		if err := pm.loadData(); err != nil {
			return nil, err
		}
	}
	return pm.data.list, nil
}
func (pm *presetManager) applyToParams(name string, target *params) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid preset name %q", name)
	}
	bytes, err := os.ReadFile(filepath.Join(pm.dir, name+".json"))
	if err != nil {
		return err
	}
	if !json.Valid(bytes) {
		return fmt.Errorf("preset %s is not valid JSON", name)
	}
	target.applyJSON(bytes)
	return nil
}
func (pm *presetManager) loadData() error {
	bytes, err := os.ReadFile(filepath.Join(pm.dir, "_list.json"))
	if err != nil {
		return err
	}
	metaListJSON := &presetMetaListJSON{}
	err = json.Unmarshal(bytes, &metaListJSON)
	if err != nil {
		return err
	}
	list := make([]*presetMeta, len(metaListJSON.Items))
	for i, item := range metaListJSON.Items {
		list[i] = &presetMeta{name: item.Name}
	}
	pm.data = &presetData{list: list}
	return nil
}
