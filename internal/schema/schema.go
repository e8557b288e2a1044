// Package schema validates editor documents against an embedded CUE schema
// and decodes them into canvas types.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"pageCraftNN/internal/transform"
	"pageCraftNN/internal/types/canvas"
)

//go:embed savedwork.cue
var schemaSource string

const (
	requestDefinition = "#ProcessRequest"
	workDefinition    = "#SavedWork"
	itemDefinition    = "#ItemFields"
)

const (
	// a compiled schema interns every label it sees, so it is retired
	// after this many documents
	maxSchemaUses = 1000

	maxFieldErrors = 50
)

type Validator struct {
	maxDepth int
	schemas  schemaPool
}

func NewValidator(maxDepth int) *Validator {
	if maxDepth <= 0 {
		maxDepth = transform.DefaultMaxDepth
	}
	return &Validator{maxDepth: maxDepth}
}

// DecodeRequest validates a {"payload": SavedWork} envelope.
func (v *Validator) DecodeRequest(data []byte) (*canvas.ProcessRequest, error) {
	data, err := v.validate(data, kindRequest, requestDefinition)
	if err != nil {
		return nil, err
	}

	req := canvas.ProcessRequest{Payload: canvas.SavedWork{Version: canvas.CurrentVersion}}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, invalid("", err.Error())
	}
	return &req, nil
}

// DecodeWork validates a bare SavedWork document.
func (v *Validator) DecodeWork(data []byte) (*canvas.SavedWork, error) {
	data, err := v.validate(data, kindWork, workDefinition)
	if err != nil {
		return nil, err
	}

	work := canvas.SavedWork{Version: canvas.CurrentVersion}
	if err := json.Unmarshal(data, &work); err != nil {
		return nil, invalid("", err.Error())
	}
	return &work, nil
}

// validate checks the envelope with its item lists emptied, then every item
// node on its own. It returns the bytes to decode, which differ from data
// only when integral floats were rewritten for int fields.
func (v *Validator) validate(data []byte, rootKind nodeKind, definition string) ([]byte, error) {
	generic, err := oj.Parse(data, ojg.NumConvFloat64)
	if err != nil {
		return nil, invalid("", fmt.Sprintf("malformed JSON: %v", err))
	}

	items, err := walkDocument(generic, rootKind, v.maxDepth)
	if err != nil {
		return nil, err
	}
	shell, coerced := shallowRoot(generic, rootKind)

	s, err := v.schemas.get()
	if err != nil {
		return nil, err
	}
	defer v.schemas.put(s)

	fields := s.check(definition, "", shell, nil)
	for _, item := range items {
		if len(fields) >= maxFieldErrors {
			break
		}
		fields = s.check(itemDefinition, item.path, shallowItem(item.value), fields)
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields)
	}

	if coerced {
		if data, err = json.Marshal(generic); err != nil {
			return nil, invalid("", err.Error())
		}
	}
	return data, nil
}

type compiledSchema struct {
	ctx  *cue.Context
	defs map[string]cue.Value
	uses int
}

func compileSchema() (*compiledSchema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSource, cue.Filename("savedwork.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	defs := make(map[string]cue.Value, 3)
	for _, name := range []string{requestDefinition, workDefinition, itemDefinition} {
		def := root.LookupPath(cue.ParsePath(name))
		if err := def.Err(); err != nil {
			return nil, fmt.Errorf("lookup %s: %w", name, err)
		}
		defs[name] = def
	}
	return &compiledSchema{ctx: ctx, defs: defs}, nil
}

func (s *compiledSchema) check(definition, prefix string, value any, fields []FieldError) []FieldError {
	doc := s.ctx.Encode(value)
	if err := doc.Err(); err != nil {
		return append(fields, FieldError{Path: prefix, Message: err.Error()})
	}
	if err := s.defs[definition].Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return append(fields, fieldErrors(prefix, err)...)
	}
	return fields
}

// schemaPool hands out compiled schemas. A cue.Context is not safe for
// concurrent use, so every caller borrows one of its own.
type schemaPool struct {
	pool sync.Pool
}

func (p *schemaPool) get() (*compiledSchema, error) {
	if s, ok := p.pool.Get().(*compiledSchema); ok {
		return s, nil
	}
	return compileSchema()
}

func (p *schemaPool) put(s *compiledSchema) {
	s.uses++
	if s.uses < maxSchemaUses {
		p.pool.Put(s)
	}
}

func fieldErrors(prefix string, err error) []FieldError {
	var fields []FieldError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		fields = append(fields, FieldError{
			Path:    joinPath(prefix, e.Path()),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(fields) == 0 {
		fields = append(fields, FieldError{Path: prefix, Message: err.Error()})
	}
	return fields
}

func newValidationError(fields []FieldError) *ValidationError {
	slices.SortFunc(fields, func(a, b FieldError) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Message, b.Message)
	})
	fields = slices.Compact(fields)
	if len(fields) > maxFieldErrors {
		fields = fields[:maxFieldErrors]
	}
	return &ValidationError{Fields: fields}
}

// joinPath renders CUE selectors in the same form as document paths:
// payload.gallery[0].name, itemsByResolution["1x1"].
func joinPath(prefix string, selectors []string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, sel := range selectors {
		switch {
		case sel == "" || strings.HasPrefix(sel, "#"):
		case isIndex(sel):
			b.WriteString("[" + sel + "]")
		case strings.HasPrefix(sel, `"`):
			b.WriteString("[" + sel + "]")
		default:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(sel)
		}
	}
	return b.String()
}

func isIndex(sel string) bool {
	for _, r := range sel {
		if r < '0' || r > '9' {
			return false
		}
	}
	return sel != ""
}
