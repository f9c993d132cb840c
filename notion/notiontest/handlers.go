package notiontest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vthunder/contentos-notion-mcp/notion"
)

type initialDataSource struct {
	Properties map[string]notion.PropertySchema `json:"properties"`
}

func (s *Server) createDatabase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Parent            notion.Parent      `json:"parent"`
		Title             []notion.RichText  `json:"title"`
		Description       []notion.RichText  `json:"description"`
		Icon              *notion.Icon       `json:"icon"`
		IsInline          bool               `json:"is_inline"`
		InitialDataSource *initialDataSource `json:"initial_data_source"`
		Properties        map[string]any     `json:"properties"` // pre-2025-09-03 shape, rejected
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Parent.Type != notion.ParentPage || s.pages[body.Parent.PageID] == nil {
		validation(w, "body.parent.page_id should be an existing page")
		return
	}
	if body.Properties != nil || body.InitialDataSource == nil {
		validation(w, "body.initial_data_source should be defined")
		return
	}
	if err := notion.ValidateSchema(body.InitialDataSource.Properties); err != nil {
		validation(w, err.Error())
		return
	}
	db := s.insertDatabase(body.Parent.PageID, notion.PlainText(body.Title), body.InitialDataSource.Properties)
	db.Description = body.Description
	db.Icon = body.Icon
	db.IsInline = body.IsInline
	writeJSON(w, http.StatusOK, db)
}

func (s *Server) getDatabase(w http.ResponseWriter, r *http.Request) {
	db := s.databases[r.PathValue("id")]
	if db == nil {
		notFound(w, r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, db)
}

func (s *Server) updateDatabase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	db := s.databases[id]
	if db == nil {
		notFound(w, id)
		return
	}
	var body notion.UpdateDatabaseRequest
	if !decode(w, r, &body) {
		return
	}
	if body.Parent != nil {
		target := body.Parent.PageID
		if body.Parent.Type != notion.ParentPage || s.pages[target] == nil {
			validation(w, "body.parent.page_id should be an existing page")
			return
		}
		s.unlist(db.Parent.PageID, id)
		db.Parent = notion.PageParent(target)
		if !db.InTrash {
			s.children[target] = append(s.children[target], id)
		}
		if b := s.blocks[id]; b != nil {
			pp := db.Parent
			b.Parent = &pp
		}
	}
	if len(body.Title) > 0 {
		db.Title = body.Title
		if b := s.blocks[id]; b != nil {
			b.ChildDatabase = &notion.ChildTitle{Title: notion.PlainText(body.Title)}
		}
	}
	if len(body.Description) > 0 {
		db.Description = body.Description
	}
	if body.Icon != nil {
		db.Icon = body.Icon
	}
	if body.InTrash != nil && *body.InTrash != db.InTrash {
		db.InTrash, db.Archived = *body.InTrash, *body.InTrash
		if db.InTrash {
			s.unlist(db.Parent.PageID, id)
		} else {
			s.children[db.Parent.PageID] = append(s.children[db.Parent.PageID], id)
		}
	}
	db.LastEditedTime = *now()
	writeJSON(w, http.StatusOK, db)
}

func (s *Server) unlist(parentID, id string) {
	s.children[parentID] = slices.DeleteFunc(s.children[parentID], func(c string) bool { return c == id })
}

func (s *Server) getDataSource(w http.ResponseWriter, r *http.Request) {
	ds := s.dataSources[r.PathValue("id")]
	if ds == nil {
		notFound(w, r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) updateDataSource(w http.ResponseWriter, r *http.Request) {
	ds := s.dataSources[r.PathValue("id")]
	if ds == nil {
		notFound(w, r.PathValue("id"))
		return
	}
	var body notion.UpdateDataSourceRequest
	if !decode(w, r, &body) {
		return
	}
	if len(body.Title) > 0 {
		ds.Title = body.Title
	}
	for name, prop := range body.Properties {
		existing, ok := ds.Properties[name]
		switch {
		case prop == nil:
			if ok && existing.Kind() == notion.PropertyTypeTitle {
				validation(w, "cannot delete the title property")
				return
			}
			delete(ds.Properties, name)
		case prop.Kind() == "":
			if !ok || prop.Name == "" {
				validation(w, fmt.Sprintf("property %q needs a type", name))
				return
			}
			delete(ds.Properties, name)
			existing.Name = prop.Name
			ds.Properties[prop.Name] = existing
			s.renamePageProperty(ds.ID, name, prop.Name)
		default:
			newName := name
			if prop.Name != "" {
				newName = prop.Name
			}
			p := *prop
			p.Name, p.Type = newName, p.Kind()
			if p.ID == "" {
				p.ID = shortID()
			}
			delete(ds.Properties, name)
			ds.Properties[newName] = p
		}
	}
	ds.LastEditedTime = *now()
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) renamePageProperty(dsID, from, to string) {
	for _, p := range s.pages {
		if p.Parent.DataSourceID != dsID {
			continue
		}
		if v, ok := p.Properties[from]; ok {
			delete(p.Properties, from)
			p.Properties[to] = v
		}
	}
}

func (s *Server) queryDataSource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.dataSources[id] == nil {
		notFound(w, id)
		return
	}
	var body struct {
		Filter      map[string]any `json:"filter"`
		StartCursor string         `json:"start_cursor"`
		PageSize    int            `json:"page_size"`
	}
	if !decode(w, r, &body) {
		return
	}
	var rows []notion.Page
	for _, pid := range s.pageOrder {
		p := s.pages[pid]
		if p.Parent.DataSourceID == id && !p.Archived && matchFilter(p, body.Filter) {
			rows = append(rows, *p)
		}
	}
	writeList(w, rows, body.StartCursor, body.PageSize)
}

// matchFilter supports property conditions combined with and/or.
func matchFilter(p *notion.Page, f map[string]any) bool {
	if len(f) == 0 {
		return true
	}
	if and, ok := f["and"].([]any); ok {
		for _, sub := range and {
			if m, _ := sub.(map[string]any); !matchFilter(p, m) {
				return false
			}
		}
		return true
	}
	if or, ok := f["or"].([]any); ok {
		for _, sub := range or {
			if m, _ := sub.(map[string]any); matchFilter(p, m) {
				return true
			}
		}
		return false
	}
	name, _ := f["property"].(string)
	value := notion.ExtractPropertyValue(p.Properties[name])
	for key, c := range f {
		if key == "property" {
			continue
		}
		cond, _ := c.(map[string]any)
		for op, want := range cond {
			if !matchCondition(value, op, want) {
				return false
			}
		}
	}
	return true
}

func matchCondition(value any, op string, want any) bool {
	switch op {
	case "is_empty":
		return notion.IsEmptyValue(value)
	case "is_not_empty":
		return !notion.IsEmptyValue(value)
	}
	w := fmt.Sprint(want)
	switch v := value.(type) {
	case []string:
		switch op {
		case "contains":
			return slices.Contains(v, w)
		case "does_not_contain":
			return !slices.Contains(v, w)
		}
		return false
	case string:
		switch op {
		case "equals":
			return v == w
		case "does_not_equal":
			return v != w
		case "contains":
			return strings.Contains(strings.ToLower(v), strings.ToLower(w))
		case "does_not_contain":
			return !strings.Contains(strings.ToLower(v), strings.ToLower(w))
		case "starts_with":
			return strings.HasPrefix(v, w)
		}
	default:
		switch op {
		case "equals":
			return fmt.Sprint(v) == w
		case "does_not_equal":
			return fmt.Sprint(v) != w
		}
	}
	return false
}

func (s *Server) createPage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Parent     notion.Parent                   `json:"parent"`
		Properties map[string]notion.PropertyValue `json:"properties"`
		Children   []notion.Block                  `json:"children"`
		Icon       *notion.Icon                    `json:"icon"`
		Cover      *notion.FileObject              `json:"cover"`
	}
	if !decode(w, r, &body) {
		return
	}
	if len(body.Children) > notion.MaxBlocksPerRequest {
		validation(w, fmt.Sprintf("body.children.length should be ≤ %d", notion.MaxBlocksPerRequest))
		return
	}
	switch body.Parent.Type {
	case notion.ParentPage:
		if s.pages[body.Parent.PageID] == nil {
			notFound(w, body.Parent.PageID)
			return
		}
	case notion.ParentDataSource:
		ds := s.dataSources[body.Parent.DataSourceID]
		if ds == nil {
			notFound(w, body.Parent.DataSourceID)
			return
		}
		for name, v := range body.Properties {
			schema, ok := ds.Properties[name]
			if !ok {
				validation(w, name+" is not a property that exists.")
				return
			}
			if v.Type == "" {
				v.Type = schema.Kind()
				body.Properties[name] = v
			}
			if v.Type != schema.Kind() {
				validation(w, fmt.Sprintf("%s is expected to be %s.", name, schema.Kind()))
				return
			}
		}
	default:
		validation(w, "body.parent should be a page_id or data_source_id")
		return
	}
	if err := checkCreatable(body.Children); err != nil {
		validation(w, err.Error())
		return
	}
	p := s.insertPage(body.Parent, body.Properties)
	p.Icon, p.Cover = body.Icon, body.Cover
	s.storeBlocks(p.ID, notion.PageParent(p.ID), body.Children)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	p := s.pages[r.PathValue("id")]
	if p == nil {
		notFound(w, r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := s.pages[id]
	if p == nil {
		notFound(w, id)
		return
	}
	var body struct {
		notion.UpdatePageRequest
		Parent json.RawMessage `json:"parent"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Parent != nil {
		validation(w, "body.parent should be not present; use POST /pages/{id}/move")
		return
	}
	if body.Archived != nil {
		switch {
		case *body.Archived && !p.Archived:
			s.archivePage(p)
		case !*body.Archived && p.Archived:
			p.Archived, p.InTrash = false, false
			s.attach(p)
		}
	}
	for name, v := range body.Properties {
		if v.Type == "" {
			if old, ok := p.Properties[name]; ok {
				v.Type = old.Type
			}
		}
		p.Properties[name] = v
	}
	if body.Icon != nil {
		p.Icon = body.Icon
	}
	if body.Cover != nil {
		p.Cover = body.Cover
	}
	if body.EraseContent {
		for _, cid := range s.children[id] {
			if cp := s.pages[cid]; cp != nil {
				cp.Archived, cp.InTrash = true, true
				continue
			}
			s.dropBlock(cid)
		}
		delete(s.children, id)
	}
	p.LastEditedTime = *now()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) movePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := s.pages[id]
	if p == nil {
		notFound(w, id)
		return
	}
	var body struct {
		Parent *notion.Parent `json:"parent"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Parent == nil || body.Parent.Type != notion.ParentPage {
		validation(w, "body.parent.type should be page_id")
		return
	}
	target := body.Parent.PageID
	if s.pages[target] == nil || target == id {
		validation(w, "body.parent.page_id should be an existing page")
		return
	}
	s.detach(p)
	p.Parent = notion.PageParent(target)
	if !p.Archived {
		s.attach(p)
	}
	p.LastEditedTime = *now()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getBlock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.blocks[id]; !ok {
		notFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, s.blockView(id))
}

func (s *Server) updateBlock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b := s.blocks[id]
	if b == nil {
		notFound(w, id)
		return
	}
	var body notion.Block
	if !decode(w, r, &body) {
		return
	}
	if body.Type != "" && body.Type != b.Type {
		validation(w, "block type cannot be changed")
		return
	}
	body.Type = b.Type
	body.DetachChildren()
	body.Object, body.ID, body.Parent, body.CreatedTime = b.Object, b.ID, b.Parent, b.CreatedTime
	body.LastEditedTime = now()
	*b = body
	writeJSON(w, http.StatusOK, s.blockView(id))
}

func (s *Server) deleteBlock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b := s.blocks[id]
	if b == nil {
		notFound(w, id)
		return
	}
	if p := s.pages[id]; p != nil {
		s.archivePage(p)
	} else {
		parent := b.Parent.ID()
		s.children[parent] = slices.DeleteFunc(s.children[parent], func(c string) bool { return c == id })
		b.Archived = true
	}
	out := s.blockView(id)
	out.Archived = true
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getChildren(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.blocks[id]; !ok && s.pages[id] == nil {
		notFound(w, id)
		return
	}
	q := r.URL.Query()
	size, _ := strconv.Atoi(q.Get("page_size"))
	views := make([]notion.Block, 0, len(s.children[id]))
	for _, cid := range s.children[id] {
		views = append(views, s.blockView(cid))
	}
	writeList(w, views, q.Get("start_cursor"), size)
}

func (s *Server) appendChildren(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var parent notion.Parent
	switch {
	case s.pages[id] != nil:
		parent = notion.PageParent(id)
	case s.blocks[id] != nil:
		parent = notion.Parent{Type: notion.ParentBlock, BlockID: id}
	default:
		notFound(w, id)
		return
	}
	var body struct {
		Children []notion.Block `json:"children"`
	}
	if !decode(w, r, &body) {
		return
	}
	if len(body.Children) > notion.MaxBlocksPerRequest {
		validation(w, fmt.Sprintf("body.children.length should be ≤ %d, instead was %d", notion.MaxBlocksPerRequest, len(body.Children)))
		return
	}
	if err := checkCreatable(body.Children); err != nil {
		validation(w, err.Error())
		return
	}
	ids := s.storeBlocks(id, parent, body.Children)
	views := make([]notion.Block, 0, len(ids))
	for _, cid := range ids {
		views = append(views, s.blockView(cid))
	}
	writeList(w, views, "", len(views))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var body notion.SearchRequest
	if !decode(w, r, &body) {
		return
	}
	query := strings.ToLower(body.Query)
	want := ""
	if body.Filter != nil {
		want = body.Filter.Value
	}
	var results []notion.SearchResult
	if want == "" || want == notion.SearchPages {
		for _, id := range s.pageOrder {
			p := s.pages[id]
			if p.Archived || !strings.Contains(strings.ToLower(p.Title()), query) {
				continue
			}
			props, _ := json.Marshal(p.Properties)
			results = append(results, notion.SearchResult{
				Object: "page", ID: p.ID, CreatedTime: p.CreatedTime, LastEditedTime: p.LastEditedTime,
				Parent: p.Parent, URL: p.URL, PropertiesRaw: props,
			})
		}
	}
	if want == "" || want == notion.SearchDataSources {
		for _, id := range s.dsOrder {
			ds := s.dataSources[id]
			if !strings.Contains(strings.ToLower(notion.PlainText(ds.Title)), query) {
				continue
			}
			results = append(results, notion.SearchResult{
				Object: "data_source", ID: ds.ID, CreatedTime: ds.CreatedTime, LastEditedTime: ds.LastEditedTime,
				Parent: ds.Parent, Title: ds.Title,
			})
		}
	}
	writeList(w, results, body.StartCursor, body.PageSize)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.users[r.PathValue("id")]
	if !ok {
		notFound(w, r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	size, _ := strconv.Atoi(q.Get("page_size"))
	writeList(w, s.comments[q.Get("block_id")], q.Get("start_cursor"), size)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Parent   notion.Parent     `json:"parent"`
		RichText []notion.RichText `json:"rich_text"`
	}
	if !decode(w, r, &body) {
		return
	}
	id := body.Parent.ID()
	if s.pages[id] == nil {
		notFound(w, id)
		return
	}
	c := notion.Comment{
		ID:          uuid.NewString(),
		CreatedTime: *now(),
		CreatedBy:   notion.User{Object: "user", ID: s.bot.ID},
		RichText:    body.RichText,
		Parent:      body.Parent,
	}
	s.comments[id] = append(s.comments[id], c)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createUpload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode        string `json:"mode"`
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if !decode(w, r, &body) {
		return
	}
	id := uuid.NewString()
	fu := &notion.FileUpload{
		Object:      "file_upload",
		ID:          id,
		Status:      "pending",
		Filename:    body.Filename,
		ContentType: body.ContentType,
		UploadURL:   s.URL + "/file_uploads/" + id + "/send",
	}
	s.uploads[id] = fu
	writeJSON(w, http.StatusOK, fu)
}

func (s *Server) sendUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fu := s.uploads[id]
	if fu == nil {
		notFound(w, id)
		return
	}
	if fu.Status != "pending" {
		validation(w, "file upload is not pending")
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		validation(w, "missing file part: "+err.Error())
		return
	}
	defer func() { _ = f.Close() }()
	n, err := io.Copy(io.Discard, f)
	if err != nil {
		validation(w, err.Error())
		return
	}
	s.uploadSizes[id] = n
	fu.Status = "uploaded"
	writeJSON(w, http.StatusOK, fu)
}

func writeList[T any](w http.ResponseWriter, items []T, cursor string, size int) {
	if size <= 0 || size > 100 {
		size = 100
	}
	start, _ := strconv.Atoi(cursor)
	start = min(max(start, 0), len(items))
	end := min(start+size, len(items))
	resp := notion.PaginatedResponse[T]{Object: "list", Results: items[start:end]}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if end < len(items) {
		next := strconv.Itoa(end)
		resp.NextCursor = &next
		resp.HasMore = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func checkCreatable(blocks []notion.Block) error {
	for i := range blocks {
		b := &blocks[i]
		switch b.Type {
		case "":
			return fmt.Errorf("body.children[%d].type should be defined", i)
		case notion.BlockChildPage, notion.BlockChildDatabase:
			return fmt.Errorf("body.children[%d] of type %s cannot be created", i, b.Type)
		}
		if err := checkCreatable(b.ChildBlocks()); err != nil {
			return err
		}
	}
	return nil
}
