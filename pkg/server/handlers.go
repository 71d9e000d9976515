package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/buildinfo"
	"github.com/matzehuels/famtree/pkg/errors"
	famio "github.com/matzehuels/famtree/pkg/io"
	"github.com/matzehuels/famtree/pkg/pipeline"
	"github.com/matzehuels/famtree/pkg/tree"
)

// =============================================================================
// Requests
// =============================================================================

type personRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Gender   string `json:"gender" validate:"omitempty,oneofci=male female unknown m f"`
	Birth    string `json:"birth" validate:"max=64"`
	Death    string `json:"death" validate:"max=64"`
	Deceased bool   `json:"deceased"`
	Memo     string `json:"memo" validate:"max=4000"`

	PhotoPath   string  `json:"photo_path" validate:"max=1024"`
	DisplayMode string  `json:"display_mode" validate:"omitempty,oneofci=NameOnly NameAndPhoto"`
	PhotoScale  float64 `json:"photo_scale" validate:"gte=0,lte=10"`
}

type personPatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Gender   *string `json:"gender" validate:"omitempty,oneofci=male female unknown m f"`
	Birth    *string `json:"birth" validate:"omitempty,max=64"`
	Death    *string `json:"death" validate:"omitempty,max=64"`
	Deceased *bool   `json:"deceased"`
	Memo     *string `json:"memo" validate:"omitempty,max=4000"`

	PhotoPath   *string  `json:"photo_path" validate:"omitempty,max=1024"`
	DisplayMode *string  `json:"display_mode" validate:"omitempty,oneofci=NameOnly NameAndPhoto"`
	PhotoScale  *float64 `json:"photo_scale" validate:"omitempty,gte=0,lte=10"`
}

type edgeRequest struct {
	Parent string `json:"parent" validate:"required,uuid"`
	Child  string `json:"child" validate:"required,uuid"`
	Kind   string `json:"kind" validate:"omitempty,oneof=biological adoptive other"`
}

type spouseRequest struct {
	Person1 string `json:"person1" validate:"required,uuid"`
	Person2 string `json:"person2" validate:"required,uuid"`
	Memo    string `json:"memo" validate:"max=4000"`
}

type memoRequest struct {
	Memo string `json:"memo" validate:"max=4000"`
}

type familyRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type memberRequest struct {
	Person string `json:"person" validate:"required,uuid"`
}

type eventRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Date        string `json:"date" validate:"max=64"`
	Description string `json:"description" validate:"max=4000"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

type linkRequest struct {
	Person string `json:"person" validate:"required,uuid"`
	Style  string `json:"style" validate:"omitempty,oneof=line arrow-to-person arrow-from-person"`
	Memo   string `json:"memo" validate:"max=4000"`
}

type positionRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Snap bool    `json:"snap"`
}

type idResponse struct {
	ID string `json:"id"`
}

type layoutResponse struct {
	Tiers     int      `json:"tiers"`
	Crossings int      `json:"crossings"`
	Degraded  []string `json:"degraded,omitempty"`
}

// =============================================================================
// Queries
// =============================================================================

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Resolve()})
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	var doc famio.Document
	s.session.View(func(st *tree.Store) { doc = famio.NewDocument(st.Snapshot()) })
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) listPersons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	var persons []tree.Person
	s.session.View(func(st *tree.Store) {
		if q == "" {
			persons = st.Persons()
		} else {
			persons = st.FindPersons(q)
		}
	})
	s.respondJSON(w, http.StatusOK, personViews(persons...))
}

func (s *Server) getPerson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var (
		p  tree.Person
		ok bool
	)
	s.session.View(func(st *tree.Store) { p, ok = st.Person(id) })
	if !ok {
		s.respondError(w, errors.New(errors.ErrCodePersonNotFound, "person %s not found", id))
		return
	}
	s.respondJSON(w, http.StatusOK, personViews(p)[0])
}

// renderTree renders the current positions. Query parameters format,
// theme, lang and grid override the server defaults.
func (s *Server) renderTree(w http.ResponseWriter, r *http.Request) {
	opts := s.render
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}
	if v := q.Get("theme"); v != "" {
		opts.Theme = v
	}
	if v := q.Get("lang"); v != "" {
		opts.Language = v
	}
	if v := q.Get("grid"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "grid"))
			return
		}
		opts.GridSize = size
	}

	var (
		artifacts map[string][]byte
		err       error
	)
	s.session.View(func(st *tree.Store) {
		artifacts, err = s.runner.Render(r.Context(), st, opts)
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG, pipeline.FormatNodelink:
		return "image/svg+xml"
	case pipeline.FormatPDF:
		return "application/pdf"
	case pipeline.FormatPNG:
		return "image/png"
	}
	return "text/vnd.graphviz"
}

// =============================================================================
// Persons
// =============================================================================

func (s *Server) createPerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	var id uuid.UUID
	err := s.session.Do(func(st *tree.Store) (err error) {
		id, err = st.AddPerson(tree.Person{
			Name:     req.Name,
			Gender:   tree.ParseGender(req.Gender),
			Birth:    req.Birth,
			Death:    req.Death,
			Deceased: req.Deceased,
			Memo:     req.Memo,

			PhotoPath:  req.PhotoPath,
			Display:    tree.ParseDisplayMode(req.DisplayMode),
			PhotoScale: req.PhotoScale,
		})
		return err
	})
	s.created(w, id, err)
}

func (s *Server) updatePerson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req personPatch
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	err = s.session.Do(func(st *tree.Store) error {
		p, ok := st.Person(id)
		if !ok {
			return errors.New(errors.ErrCodePersonNotFound, "person %s not found", id)
		}
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Gender != nil {
			p.Gender = tree.ParseGender(*req.Gender)
		}
		if req.Birth != nil {
			p.Birth = *req.Birth
		}
		if req.Death != nil {
			p.Death = *req.Death
		}
		if req.Deceased != nil {
			p.Deceased = *req.Deceased
		}
		if req.Memo != nil {
			p.Memo = *req.Memo
		}
		if req.PhotoPath != nil {
			p.PhotoPath = *req.PhotoPath
		}
		if req.DisplayMode != nil {
			p.Display = tree.ParseDisplayMode(*req.DisplayMode)
		}
		if req.PhotoScale != nil {
			p.PhotoScale = *req.PhotoScale
		}
		return st.UpdatePerson(p)
	})
	s.noContent(w, err)
}

func (s *Server) deletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.noContent(w, s.session.Do(func(st *tree.Store) error { return st.RemovePerson(id) }))
}

// =============================================================================
// Relations
// =============================================================================

func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	parent, _ := uuid.Parse(req.Parent)
	child, _ := uuid.Parse(req.Child)
	err := s.session.Do(func(st *tree.Store) error {
		return st.AddParentChild(parent, child, tree.ParseEdgeKind(req.Kind))
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, nil)
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	parent, err := idParam(r, "parent")
	if err != nil {
		s.respondError(w, err)
		return
	}
	child, err := idParam(r, "child")
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.noContent(w, s.session.Do(func(st *tree.Store) error { return st.RemoveParentChild(parent, child) }))
}

func (s *Server) createSpouse(w http.ResponseWriter, r *http.Request) {
	var req spouseRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	a, _ := uuid.Parse(req.Person1)
	b, _ := uuid.Parse(req.Person2)
	err := s.session.Do(func(st *tree.Store) error { return st.AddSpouse(a, b, req.Memo) })
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, nil)
}

func (s *Server) updateSpouse(w http.ResponseWriter, r *http.Request) {
	a, b, err := s.pair(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req memoRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	s.noContent(w, s.session.Do(func(st *tree.Store) error { return st.UpdateSpouse(a, b, req.Memo) }))
}

func (s *Server) deleteSpouse(w http.ResponseWriter, r *http.Request) {
	a, b, err := s.pair(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.noContent(w, s.session.Do(func(st *tree.Store) error { return st.RemoveSpouse(a, b) }))
}

func (s *Server) pair(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	a, err := idParam(r, "a")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	b, err := idParam(r, "b")
	return a, b, err
}

// =============================================================================
// Families and events
// =============================================================================

func (s *Server) createFamily(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	color, err := colorOr(req.Color, tree.DefaultFamilyColor)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var id uuid.UUID
	err = s.session.Do(func(st *tree.Store) (err error) {
		id, err = st.AddFamily(req.Name, color)
		return err
	})
	s.created(w, id, err)
}

func (s *Server) updateFamily(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req familyRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	err = s.session.Do(func(st *tree.Store) error {
		f, ok := st.Family(id)
		if !ok {
			return errors.New(errors.ErrCodeFamilyNotFound, "family %s not found", id)
		}
		color, err := colorOr(req.Color, f.Color)
		if err != nil {
			return err
		}
		return st.UpdateFamily(id, req.Name, color)
	})
	s.noContent(w, err)
}

func (s *Server) deleteFamily(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.noContent(w, s.session.Do(func(st *tree.Store) error { return st.RemoveFamily(id) }))
}

func (s *Server) addFamilyMember(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req memberRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	person, _ := uuid.Parse(req.Person)
	s.noContent(w, s.session.Do(func(st *tree.Store) error { return st.AddFamilyMember(id, person) }))
}

func (s *Server) removeFamilyMember(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	person, err := idParam(r, "person")
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.noContent(w, s.session.Do(func(st *tree.Store) error { return st.RemoveFamilyMember(id, person) }))
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	color, err := colorOr(req.Color, tree.DefaultEventColor)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var id uuid.UUID
	err = s.session.Do(func(st *tree.Store) (err error) {
		id, err = st.AddEvent(tree.Event{Name: req.Name, Date: req.Date, Description: req.Description, Color: color})
		return err
	})
	s.created(w, id, err)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.noContent(w, s.session.Do(func(st *tree.Store) error { return st.RemoveEvent(id) }))
}

func (s *Server) linkEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req linkRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	person, _ := uuid.Parse(req.Person)
	err = s.session.Do(func(st *tree.Store) error {
		return st.AddEventLink(tree.EventLink{Event: id, Person: person, Style: tree.ParseLinkStyle(req.Style), Memo: req.Memo})
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, nil)
}

func (s *Server) unlinkEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	person, err := idParam(r, "person")
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.noContent(w, s.session.Do(func(st *tree.Store) error { return st.RemoveEventLink(id, person) }))
}

// =============================================================================
// Layout and persistence
// =============================================================================

func (s *Server) layout(reset bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.session.Layout(reset)
		resp := layoutResponse{Tiers: len(res.Tiers), Crossings: res.Crossings}
		for _, id := range res.Degraded {
			resp.Degraded = append(resp.Degraded, id.String())
		}
		s.respondJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) moveNode(w http.ResponseWriter, r *http.Request) {
	kind, ok := tree.ParseNodeKind(chi.URLParam(r, "kind"))
	if !ok {
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "unknown node kind %q", chi.URLParam(r, "kind")))
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req positionRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	pos := tree.Point{X: req.X, Y: req.Y}
	if req.Snap {
		g := s.grid
		g.Enabled = true
		pos = g.Snap(pos)
	}
	err = s.session.Do(func(st *tree.Store) error {
		return st.MoveNode(tree.NodeRef{Kind: kind, ID: id}, pos)
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]float64{"x": pos.X, "y": pos.Y})
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.session.Save(r.Context()))
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) created(w http.ResponseWriter, id uuid.UUID, err error) {
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, idResponse{ID: id.String()})
}

func (s *Server) noContent(w http.ResponseWriter, err error) {
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func colorOr(hex string, fallback tree.RGB) (tree.RGB, error) {
	if hex == "" {
		return fallback, nil
	}
	c, err := tree.ParseRGB(hex)
	if err != nil {
		return tree.RGB{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "color")
	}
	return c, nil
}

// personViews converts persons to their persisted JSON shape.
func personViews(persons ...tree.Person) []famio.Person {
	doc := famio.NewDocument(tree.Snapshot{Persons: persons})
	out := make([]famio.Person, len(persons))
	for i, p := range persons {
		out[i] = doc.Persons[p.ID.String()]
	}
	return out
}
