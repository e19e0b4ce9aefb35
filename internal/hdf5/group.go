package hdf5

import (
	"fmt"
)

// Group is a container object holding attributes and links to child
// groups and datasets.
//
// Writable groups keep their attribute and link messages in memory and
// rewrite their object header whenever a link is added. Headers cannot
// grow in place, so a rewrite allocates a fresh header at the end of
// the file and repoints the parent's link (or the superblock, for the
// root group) at the new address.
type Group struct {
	file   *File
	parent *Group // nil for the root group
	name   string
	addr   uint64

	// write-mode state
	attrMsgs []message
	links    []*linkMsg

	// read-mode state
	info *objectInfo
}

// Name returns the group's link name; the root group is "/".
func (g *Group) Name() string { return g.name }

// CreateGroup creates a child group carrying the given attributes.
// Attributes are fixed at creation time.
func (g *Group) CreateGroup(name string, attrs []Attr) (*Group, error) {
	if !g.file.writable {
		return nil, ErrReadOnly
	}
	if name == "" {
		return nil, fmt.Errorf("group name cannot be empty")
	}

	child := &Group{file: g.file, parent: g, name: name}
	for _, a := range attrs {
		m, err := encodeAttr(a)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		child.attrMsgs = append(child.attrMsgs, m)
	}

	msgs := child.headerMessages()
	child.addr = g.file.allocate(headerSize(g.file.w, msgs, minGroupChunk))
	if err := writeHeader(g.file.w.At(int64(child.addr)), msgs, minGroupChunk); err != nil {
		return nil, fmt.Errorf("writing group header: %w", err)
	}

	if err := g.addLink(name, child.addr); err != nil {
		return nil, fmt.Errorf("linking group %q: %w", name, err)
	}
	return child, nil
}

// headerMessages assembles the group's object header messages: link
// bookkeeping first, then attributes, then the links themselves.
func (g *Group) headerMessages() []message {
	msgs := make([]message, 0, 2+len(g.attrMsgs)+len(g.links))
	msgs = append(msgs, &linkInfoMsg{}, &groupInfoMsg{})
	msgs = append(msgs, g.attrMsgs...)
	for _, l := range g.links {
		msgs = append(msgs, l)
	}
	return msgs
}

// addLink records a hard link to a child object and rewrites the header.
func (g *Group) addLink(name string, addr uint64) error {
	g.links = append(g.links, &linkMsg{name: name, addr: addr})
	return g.rewriteHeader()
}

// rewriteHeader writes the group's header at a fresh address and
// repoints whatever references the old one.
func (g *Group) rewriteHeader() error {
	msgs := g.headerMessages()
	newAddr := g.file.allocate(headerSize(g.file.w, msgs, minGroupChunk))
	if err := writeHeader(g.file.w.At(int64(newAddr)), msgs, minGroupChunk); err != nil {
		return err
	}
	g.addr = newAddr

	if g.parent == nil {
		g.file.rootAddr = newAddr
		return nil
	}
	return g.parent.relink(g.name, newAddr)
}

// relink updates the link to a child whose header moved.
func (g *Group) relink(name string, addr uint64) error {
	for _, l := range g.links {
		if l.name == name {
			l.addr = addr
			return g.rewriteHeader()
		}
	}
	return fmt.Errorf("no link %q in group %q", name, g.name)
}

// openGroupAt reads a group object header for read-only access.
func (f *File) openGroupAt(addr uint64, name string) (*Group, error) {
	info, err := readHeader(f.r, addr)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", name, err)
	}
	return &Group{file: f, name: name, addr: addr, info: info}, nil
}

// Members returns the link names in this group, in link order.
func (g *Group) Members() []string {
	var names []string
	if g.info != nil {
		for _, l := range g.info.links {
			names = append(names, l.name)
		}
		return names
	}
	for _, l := range g.links {
		names = append(names, l.name)
	}
	return names
}

// lookup finds a link by name in read mode.
func (g *Group) lookup(name string) (uint64, bool) {
	if g.info == nil {
		return 0, false
	}
	for _, l := range g.info.links {
		if l.name == name {
			return l.addr, true
		}
	}
	return 0, false
}

// OpenGroup opens the named child group for reading.
func (g *Group) OpenGroup(name string) (*Group, error) {
	addr, ok := g.lookup(name)
	if !ok {
		return nil, fmt.Errorf("no such group: %q", name)
	}
	return g.file.openGroupAt(addr, name)
}

// OpenDataset opens the named child dataset for reading.
func (g *Group) OpenDataset(name string) (*Dataset, error) {
	addr, ok := g.lookup(name)
	if !ok {
		return nil, fmt.Errorf("no such dataset: %q", name)
	}
	info, err := readHeader(g.file.r, addr)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}
	if !info.hasSpace {
		return nil, fmt.Errorf("%q is not a dataset", name)
	}
	return &Dataset{file: g.file, name: name, info: info}, nil
}

// Attrs returns the group's attributes in header order.
func (g *Group) Attrs() []Attr {
	if g.info != nil {
		return g.info.attrs
	}
	var attrs []Attr
	for _, m := range g.attrMsgs {
		if am, ok := m.(*attrMsg); ok {
			attrs = append(attrs, Attr{Name: am.name})
		}
	}
	return attrs
}

// Attr returns the named attribute's value.
func (g *Group) Attr(name string) (interface{}, bool) {
	if g.info == nil {
		return nil, false
	}
	for _, a := range g.info.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}
