// Package cache persists advertising reports between runs, keyed by
// device address.
package cache

import (
	"fmt"
	"io/ioutil"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/larkwire/ble"
)

type record struct {
	EventType   uint8  `json:"eventType"`
	AddressType uint8  `json:"addressType"`
	MAC         string `json:"mac"`
	Data        []byte `json:"data,omitempty"`
	RSSI        int8   `json:"rssi"`
}

type reportCache struct {
	filename string
	lock     sync.RWMutex
}

// New returns a ble.ReportCache backed by a JSON file.
func New(filename string) ble.ReportCache {
	rc := reportCache{
		filename: filename,
	}

	return &rc
}

func (rc *reportCache) Store(r ble.Report, replace bool) error {
	rc.lock.Lock()
	defer rc.lock.Unlock()

	cache, err := rc.loadExisting()
	if err != nil {
		return err
	}

	mac := r.Addr.String()
	_, ok := cache[mac]
	if ok && !replace {
		return fmt.Errorf("cache already contains a report for %s", mac)
	}

	cache[mac] = record{
		EventType:   uint8(r.EventType),
		AddressType: uint8(r.AddressType),
		MAC:         mac,
		Data:        r.Data,
		RSSI:        r.RSSI,
	}

	return rc.storeCache(cache)
}

func (rc *reportCache) Load(a ble.Addr) (ble.Report, error) {
	rc.lock.RLock()
	defer rc.lock.RUnlock()

	cache, err := rc.loadExisting()
	if err != nil {
		return ble.Report{}, err
	}

	rec, ok := cache[a.String()]
	if !ok {
		return ble.Report{}, fmt.Errorf("report for %s not found in cache", a.String())
	}

	return ble.Report{
		EventType:   ble.EventType(rec.EventType),
		AddressType: ble.AddressType(rec.AddressType),
		Addr:        ble.NewAddr(rec.MAC),
		Data:        rec.Data,
		RSSI:        rec.RSSI,
	}, nil
}

func (rc *reportCache) Clear() error {
	rc.lock.Lock()
	defer rc.lock.Unlock()

	return os.Remove(rc.filename)
}

func (rc *reportCache) loadExisting() (map[string]record, error) {
	_, err := os.Stat(rc.filename)
	if os.IsNotExist(err) {
		return map[string]record{}, nil
	}

	in, err := ioutil.ReadFile(rc.filename)
	if err != nil {
		return nil, err
	}

	var cache map[string]record
	if err := jsoniter.Unmarshal(in, &cache); err != nil {
		return nil, err
	}

	return cache, nil
}

func (rc *reportCache) storeCache(cache map[string]record) error {
	out, err := jsoniter.Marshal(cache)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(rc.filename, out, 0644)
}
