package ledger

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Counts holds how many of each building are owned.
type Counts [NumBuildings]int

func (c Counts) Get(b Building) int {
	if !b.Valid() {
		return 0
	}
	return c[b]
}

func (c *Counts) Set(b Building, n int) {
	if b.Valid() {
		c[b] = n
	}
}

func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

func ParseCounts(m map[string]int) (Counts, []string) {
	var out Counts
	var unknown []string
	for k, v := range m {
		b, ok := ParseBuilding(k)
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		out[b] = v
	}
	sort.Strings(unknown)
	return out, unknown
}

func (c Counts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for i, v := range c {
		if v == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(strconv.Quote(buildingNames[i]))
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(v))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Counts) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*c, _ = ParseCounts(m)
	return nil
}
