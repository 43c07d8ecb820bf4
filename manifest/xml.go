package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"

	"golang.org/x/text/encoding/unicode"

	"github.com/wimpack/wim/internal/layout"
)

// NTTimeXML is the HIGHPART/LOWPART hexadecimal rendering of an NT-tick
// timestamp, per spec.md §3: "each HIGHPART/LOWPART in NT ticks, hex
// with 0x prefix."
type NTTimeXML struct {
	HighPart string `xml:"HIGHPART"`
	LowPart  string `xml:"LOWPART"`
}

// NewNTTime renders ticks as an NTTimeXML.
func NewNTTime(ticks uint64) NTTimeXML {
	high, low := layout.SplitNTTicks(ticks)
	return NTTimeXML{
		HighPart: fmt.Sprintf("0x%08X", high),
		LowPart:  fmt.Sprintf("0x%08X", low),
	}
}

// Image is one <IMAGE> element of the manifest.
//
// MetadataHash is this module's resolution of the Open Question spec.md
// §9 raises but leaves unresolved ("image aliasing via identical
// metadata hash ... keep this explicit in the image list"): the spec
// gives no on-disk field tying an image index to which offset-table row
// is its metadata resource once rows can be shared by alias, so this
// field — the owning metadata resource's hex SHA-1 — is carried in the
// manifest alongside the fields spec.md §3 names. See DESIGN.md.
type Image struct {
	Index                int       `xml:"INDEX,attr"`
	Name                 string    `xml:"NAME,omitempty"`
	Description          string    `xml:"DESCRIPTION,omitempty"`
	DirCount             uint64    `xml:"DIRCOUNT"`
	FileCount            uint64    `xml:"FILECOUNT"`
	TotalBytes           uint64    `xml:"TOTALBYTES"`
	HardLinkBytes        uint64    `xml:"HARDLINKBYTES"`
	CreationTime         NTTimeXML `xml:"CREATIONTIME"`
	LastModificationTime NTTimeXML `xml:"LASTMODIFICATIONTIME"`
	MetadataHash         string    `xml:"METADATAHASH,omitempty"`
}

// Manifest is the top-level <WIM> document.
type Manifest struct {
	XMLName    xml.Name `xml:"WIM"`
	TotalBytes uint64   `xml:"TOTALBYTES"`
	Images     []Image  `xml:"IMAGE"`
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{}
}

// ImageByIndex returns the image with the given 1-based index, if any.
func (m *Manifest) ImageByIndex(index int) (*Image, bool) {
	for i := range m.Images {
		if m.Images[i].Index == index {
			return &m.Images[i], true
		}
	}

	return nil, false
}

// ImageByName returns the image whose NAME exactly matches name, per
// the image-lookup-by-name supplement (spec.md leaves "image-id"
// unspecified; see DESIGN.md).
func (m *Manifest) ImageByName(name string) (*Image, bool) {
	for i := range m.Images {
		if m.Images[i].Name == name {
			return &m.Images[i], true
		}
	}

	return nil, false
}

// Upsert inserts img at the index-th position among children (replacing
// any existing image at that index), per spec.md §4.7: "insert the
// replacement (if any) at the index-th position among children."
func (m *Manifest) Upsert(img Image) {
	for i := range m.Images {
		if m.Images[i].Index == img.Index {
			m.Images[i] = img
			return
		}
	}

	m.Images = append(m.Images, img)
	sort.Slice(m.Images, func(i, j int) bool { return m.Images[i].Index < m.Images[j].Index })
}

// Remove deletes the image at index and renumbers every later image to
// keep indices contiguous from 1, per spec.md §4.7/§4.8 delete.
func (m *Manifest) Remove(index int) {
	out := m.Images[:0]
	for _, img := range m.Images {
		if img.Index == index {
			continue
		}
		out = append(out, img)
	}
	m.Images = out

	sort.Slice(m.Images, func(i, j int) bool { return m.Images[i].Index < m.Images[j].Index })
	for i := range m.Images {
		m.Images[i].Index = i + 1
	}
}

// Encode serializes m as UTF-16-with-BOM XML, per spec.md §3. totalBytes
// is the file offset at which the manifest blob begins and must equal
// the value m.TotalBytes is set to, per spec.md §4.7/§8's invariant.
func Encode(m *Manifest, totalBytes uint64) ([]byte, error) {
	m.TotalBytes = totalBytes

	body, err := xml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("manifest: marshal: %w", err)
	}

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	out, err := enc.Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("manifest: utf-16 transcode: %w", err)
	}

	return out, nil
}

// Decode parses a UTF-16-with-BOM (or plain UTF-8, for leniency) XML
// manifest into a Manifest.
func Decode(data []byte) (*Manifest, error) {
	body := data
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		b, err := dec.Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("manifest: utf-16 transcode: %w", err)
		}
		body = b
	}

	var m Manifest
	if err := xml.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("manifest: unmarshal: %w", err)
	}

	return &m, nil
}
