package notiontest

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

// AddPage adds a page with blocks under parentID, or at the workspace root
// when parentID is empty, without recording a request.
func (s *Server) AddPage(parentID, title string, blocks ...notion.Block) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent := notion.Parent{Type: notion.ParentWorkspace, Workspace: true}
	if parentID != "" {
		parent = notion.PageParent(parentID)
	}
	p := s.insertPage(parent, map[string]notion.PropertyValue{"title": notion.TitleValue(title)})
	s.storeBlocks(p.ID, notion.PageParent(p.ID), blocks)
	return p.ID
}

// AddDatabase adds a database with one data source under a page.
func (s *Server) AddDatabase(parentID, title string, schema map[string]notion.PropertySchema) (databaseID, dataSourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.insertDatabase(parentID, title, schema)
	return db.ID, db.DataSources[0].ID
}

// AddDatabaseWithoutDataSources adds a database container that has no data source.
func (s *Server) AddDatabaseWithoutDataSources(parentID, title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.insertDatabase(parentID, title, nil)
	delete(s.dataSources, db.DataSources[0].ID)
	s.dsOrder = slices.DeleteFunc(s.dsOrder, func(id string) bool { return id == db.DataSources[0].ID })
	db.DataSources = []notion.DataSourceRef{}
	return db.ID
}

// AddRow adds a page to a data source.
func (s *Server) AddRow(dataSourceID string, props map[string]notion.PropertyValue) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertPage(notion.DataSourceParent(dataSourceID), props).ID
}

// AddUser adds a workspace member and returns its ID.
func (s *Server) AddUser(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := notion.User{Object: "user", ID: uuid.NewString(), Name: name, Type: "person"}
	s.users[u.ID] = u
	return u.ID
}

// AddComment adds a comment by userID on a page. The author is returned by
// ID only, as the API does.
func (s *Server) AddComment(pageID, userID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[pageID] = append(s.comments[pageID], notion.Comment{
		ID:          uuid.NewString(),
		CreatedTime: *now(),
		CreatedBy:   notion.User{Object: "user", ID: userID},
		RichText:    notion.RichTextFrom(text),
		Parent:      notion.PageParent(pageID),
	})
}

// Page returns a snapshot of a page.
func (s *Server) Page(id string) (notion.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pages[id]
	if p == nil {
		return notion.Page{}, false
	}
	return *p, true
}

// DataSource returns a snapshot of a data source.
func (s *Server) DataSource(id string) (notion.DataSource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds := s.dataSources[id]
	if ds == nil {
		return notion.DataSource{}, false
	}
	return *ds, true
}

// Children returns the current children of a page or block.
func (s *Server) Children(parentID string) []notion.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notion.Block, 0, len(s.children[parentID]))
	for _, id := range s.children[parentID] {
		out = append(out, s.blockView(id))
	}
	return out
}

// ChildPageTitles returns the titles of the child pages of a page, in order.
func (s *Server) ChildPageTitles(parentID string) []string {
	var titles []string
	for _, b := range s.Children(parentID) {
		if b.Type == notion.BlockChildPage {
			titles = append(titles, b.PlainText())
		}
	}
	return titles
}

// UploadedBytes returns the size of the content sent for a file upload.
func (s *Server) UploadedBytes(uploadID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadSizes[uploadID]
}

func (s *Server) insertPage(parent notion.Parent, props map[string]notion.PropertyValue) *notion.Page {
	if props == nil {
		props = make(map[string]notion.PropertyValue)
	}
	t := now()
	p := &notion.Page{
		Object:         "page",
		ID:             uuid.NewString(),
		CreatedTime:    *t,
		LastEditedTime: *t,
		Parent:         parent,
		Properties:     props,
	}
	p.URL = pageURL(p.ID)
	s.pages[p.ID] = p
	s.pageOrder = append(s.pageOrder, p.ID)

	bp := parent
	s.blocks[p.ID] = &notion.Block{
		Object:      "block",
		ID:          p.ID,
		Parent:      &bp,
		Type:        notion.BlockChildPage,
		CreatedTime: t,
		ChildPage:   &notion.ChildTitle{},
	}
	s.attach(p)
	return p
}

func (s *Server) insertDatabase(parentID, title string, props map[string]notion.PropertySchema) *notion.Database {
	t := now()
	dbID, dsID := uuid.NewString(), uuid.NewString()
	schema := make(map[string]notion.PropertySchema, len(props))
	for name, p := range props {
		p.Name, p.Type = name, p.Kind()
		switch {
		case p.Type == notion.PropertyTypeTitle:
			p.ID = "title"
		case p.ID == "":
			p.ID = shortID()
		}
		schema[name] = p
	}
	db := &notion.Database{
		Object:         "database",
		ID:             dbID,
		CreatedTime:    *t,
		LastEditedTime: *t,
		Title:          notion.RichTextFrom(title),
		Parent:         notion.PageParent(parentID),
		DataSources:    []notion.DataSourceRef{{ID: dsID, Name: title}},
		URL:            pageURL(dbID),
	}
	s.databases[dbID] = db
	s.dataSources[dsID] = &notion.DataSource{
		Object:         "data_source",
		ID:             dsID,
		CreatedTime:    *t,
		LastEditedTime: *t,
		Title:          notion.RichTextFrom(title),
		Parent:         notion.Parent{Type: notion.ParentDatabase, DatabaseID: dbID},
		Properties:     schema,
	}
	s.dsOrder = append(s.dsOrder, dsID)

	bp := notion.PageParent(parentID)
	s.blocks[dbID] = &notion.Block{
		Object:        "block",
		ID:            dbID,
		Parent:        &bp,
		Type:          notion.BlockChildDatabase,
		CreatedTime:   t,
		ChildDatabase: &notion.ChildTitle{Title: title},
	}
	s.children[parentID] = append(s.children[parentID], dbID)
	return db
}

// storeBlocks assigns IDs to blocks and their nested children and appends
// them to parentID.
func (s *Server) storeBlocks(parentID string, parent notion.Parent, blocks []notion.Block) []string {
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		kids := b.DetachChildren()
		t := now()
		pp := parent
		b.Object, b.ID, b.Parent = "block", uuid.NewString(), &pp
		b.CreatedTime, b.LastEditedTime = t, t
		b.Children = nil
		s.blocks[b.ID] = &b
		s.children[parentID] = append(s.children[parentID], b.ID)
		ids = append(ids, b.ID)
		if len(kids) > 0 {
			s.storeBlocks(b.ID, notion.Parent{Type: notion.ParentBlock, BlockID: b.ID}, kids)
		}
	}
	return ids
}

// blockView returns a block as the API reports it.
func (s *Server) blockView(id string) notion.Block {
	b := *s.blocks[id]
	b.HasChildren = len(s.children[id]) > 0
	if p := s.pages[id]; p != nil {
		b.ChildPage = &notion.ChildTitle{Title: p.Title()}
		b.Archived = p.Archived
		pp := p.Parent
		b.Parent = &pp
	}
	return b
}

// attach lists a page under its parent page, at the end.
func (s *Server) attach(p *notion.Page) {
	if b := s.blocks[p.ID]; b != nil {
		pp := p.Parent
		b.Parent = &pp
	}
	if p.Parent.Type != notion.ParentPage {
		return
	}
	parent := p.Parent.PageID
	if !slices.Contains(s.children[parent], p.ID) {
		s.children[parent] = append(s.children[parent], p.ID)
	}
}

// detach removes a page from its parent's children.
func (s *Server) detach(p *notion.Page) {
	if p.Parent.Type != notion.ParentPage {
		return
	}
	parent := p.Parent.PageID
	s.children[parent] = slices.DeleteFunc(s.children[parent], func(id string) bool { return id == p.ID })
}

func (s *Server) archivePage(p *notion.Page) {
	p.Archived, p.InTrash = true, true
	s.detach(p)
}

// dropBlock deletes a block and its descendants; pages among them are archived.
func (s *Server) dropBlock(id string) {
	if p := s.pages[id]; p != nil {
		s.archivePage(p)
		return
	}
	for _, cid := range slices.Clone(s.children[id]) {
		s.dropBlock(cid)
	}
	delete(s.children, id)
	delete(s.blocks, id)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
