package adv

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/larkwire/ble"
)

// Map keys for the decoded fields. Incomplete and complete variants of
// a list land under the same key.
var keys = struct {
	flags   string
	uuid16  string
	uuid32  string
	uuid128 string
	sol16   string
	sol32   string
	sol128  string
	svc16   string
	svc32   string
	svc128  string
	name    string
	txpwr   string
	mfg     string
}{
	flags:   "flags",
	uuid16:  "uuid16",
	uuid32:  "uuid32",
	uuid128: "uuid128",
	sol16:   "sol16",
	sol32:   "sol32",
	sol128:  "sol128",
	svc16:   "svc16",
	svc32:   "svc32",
	svc128:  "svc128",
	name:    "name",
	txpwr:   "txpwr",
	mfg:     "mfg",
}

type pduRecord struct {
	arrayElementSz int
	minSz          int
	key            string
}

var pduDecodeMap = map[byte]pduRecord{
	someUUID16:       {2, 2, keys.uuid16},
	allUUID16:        {2, 2, keys.uuid16},
	someUUID32:       {4, 4, keys.uuid32},
	allUUID32:        {4, 4, keys.uuid32},
	someUUID128:      {16, 16, keys.uuid128},
	allUUID128:       {16, 16, keys.uuid128},
	serviceSol16:     {2, 2, keys.sol16},
	serviceSol32:     {4, 4, keys.sol32},
	serviceSol128:    {16, 16, keys.sol128},
	serviceData16:    {0, 2, keys.svc16},
	serviceData32:    {0, 4, keys.svc32},
	serviceData128:   {0, 16, keys.svc128},
	shortName:        {0, 1, keys.name},
	completeName:     {0, 1, keys.name},
	txPower:          {0, 1, keys.txpwr},
	manufacturerData: {0, 1, keys.mfg},
	flags:            {0, 1, keys.flags},
}

func getArray(size int, bytes []byte) ([]interface{}, error) {
	//valid size?
	if size <= 0 {
		return nil, fmt.Errorf("invalid size")
	}

	//bytes empty/nil?
	if len(bytes) == 0 {
		return nil, fmt.Errorf("nil/empty bytes")
	}

	//any remainder?
	count := len(bytes) / size
	rem := len(bytes) % size
	if rem != 0 || count == 0 {
		return nil, fmt.Errorf("incorrect size")
	}

	arr := make([]interface{}, 0, count)
	for j := 0; j < len(bytes); j += size {
		arr = append(arr, bytes[j:(j+size)])
	}

	return arr, nil
}

func decode(pdu []byte) (map[string]interface{}, error) {
	if pdu == nil {
		return nil, fmt.Errorf("nil pdu")
	}

	m := make(map[string]interface{})
	for i := 0; (i + 1) < len(pdu); {

		//length @ offset 0
		//type @ offset 1
		//data @ 2 - length
		length := int(pdu[i])
		typ := pdu[i+1]

		//length covers at least the type byte
		if length < 1 {
			return nil, fmt.Errorf("invalid record length %d", length)
		}

		//do we have all the bytes for the payload?
		if (i + length) >= len(pdu) {
			return nil, fmt.Errorf("buffer overflow: want %v, have %v", i+length, len(pdu))
		}

		start := i + 2
		end := start + length - 1
		bytes := pdu[start:end]

		dec, ok := pduDecodeMap[typ]
		if !ok {
			ble.GetLogger().Debugf("adv: ignoring unsupported type 0x%02X", typ)
			i += length + 1
			continue
		}

		//have min length?
		if dec.minSz > len(bytes) {
			return nil, fmt.Errorf("adv type 0x%02X: min length %v, have %v", typ, dec.minSz, len(bytes))
		}

		//expecting an array?
		if dec.arrayElementSz > 0 {
			arr, err := getArray(dec.arrayElementSz, bytes)
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("adv type 0x%02X", typ))
			}
			m[dec.key] = append(existingArray(m[dec.key]), arr...)
		} else {
			//min length already checked, just take it
			m[dec.key] = bytes
		}

		i += length + 1
	}

	return m, nil
}

func existingArray(v interface{}) []interface{} {
	arr, _ := v.([]interface{})
	return arr
}
