package catalog

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Flow is one elementary exchange from a release's master data. Empty
// strings mean the attribute is absent.
type Flow struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name,omitempty"`
	Formula string `json:"formula,omitempty"`
	Unit    string `json:"unit,omitempty"`
}

// Fields returns the non-empty comparable attributes of the flow keyed by
// output label. The uuid is not included.
func (f Flow) Fields() map[string]string {
	out := make(map[string]string, 3)
	if f.Name != "" {
		out["name"] = f.Name
	}
	if f.Formula != "" {
		out["formula"] = f.Formula
	}
	if f.Unit != "" {
		out["unit"] = f.Unit
	}
	return out
}

// FlowListing is an ordered, uuid-indexed set of elementary flows.
type FlowListing struct {
	flows []Flow
	index map[string]int
}

// NewFlowListing indexes flows by uuid, keeping file order.
func NewFlowListing(flows []Flow) *FlowListing {
	l := &FlowListing{
		flows: make([]Flow, 0, len(flows)),
		index: make(map[string]int, len(flows)),
	}
	for _, f := range flows {
		if idx, ok := l.index[f.UUID]; ok {
			l.flows[idx] = f
			continue
		}
		l.index[f.UUID] = len(l.flows)
		l.flows = append(l.flows, f)
	}
	return l
}

// Lookup returns the flow with the given uuid.
func (l *FlowListing) Lookup(uuid string) (Flow, bool) {
	if l == nil {
		return Flow{}, false
	}
	idx, ok := l.index[uuid]
	if !ok {
		return Flow{}, false
	}
	return l.flows[idx], true
}

// Flows returns the flows in file order.
func (l *FlowListing) Flows() []Flow {
	if l == nil {
		return nil
	}
	out := make([]Flow, len(l.flows))
	copy(out, l.flows)
	return out
}

// Len returns the number of distinct flows.
func (l *FlowListing) Len() int {
	if l == nil {
		return 0
	}
	return len(l.flows)
}

type flowListingXML struct {
	Exchanges []struct {
		ID       string `xml:"id,attr"`
		Formula  string `xml:"formula,attr"`
		Name     string `xml:"name"`
		UnitName string `xml:"unitName"`
	} `xml:"elementaryExchange"`
}

// ParseFlows decodes an ElementaryExchanges.xml document.
func ParseFlows(r io.Reader) (*FlowListing, error) {
	var doc flowListingXML
	if err := newXMLDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode elementary exchanges: %w", err)
	}
	flows := make([]Flow, 0, len(doc.Exchanges))
	for _, exc := range doc.Exchanges {
		id := strings.TrimSpace(exc.ID)
		if id == "" {
			continue
		}
		flows = append(flows, Flow{
			UUID:    id,
			Name:    strings.TrimSpace(exc.Name),
			Formula: strings.TrimSpace(exc.Formula),
			Unit:    strings.TrimSpace(exc.UnitName),
		})
	}
	return NewFlowListing(flows), nil
}

// LoadFlows reads the flow listing at path.
func LoadFlows(path string) (*FlowListing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flow listing: %w", err)
	}
	defer f.Close()
	return ParseFlows(f)
}
