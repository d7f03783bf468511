// Package page binds element handles declared on page objects to a session.
//
// A page object is a struct embedding Page whose exported fields are
// *element.Element and *element.Collection handles:
//
//	type LoginPage struct {
//		page.Page
//		User   *element.Element
//		Submit *element.Element
//	}
//
//	p := &LoginPage{User: element.New(locator.Name("user")), ...}
//	err := page.Attach(session, p)
//
// Handles shared between page objects (package-level variables) are bound on
// access with Page.El and Page.Els instead.
package page

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/element"
)

var ErrNotStruct = errors.New("page object must be a non-nil pointer to a struct")

// Page carries the session of a page object.
type Page struct {
	session driver.Session
}

func New(s driver.Session) *Page {
	return &Page{session: s}
}

func (p *Page) Session() driver.Session {
	return p.session
}

// El binds a shared handle to this page's session and returns it. The handle
// keeps its identity, so the last page to access it owns the binding.
func (p *Page) El(e *element.Element) *element.Element {
	return e.Bind(p.session)
}

// Els is El for collections.
func (p *Page) Els(c *element.Collection) *element.Collection {
	return c.Bind(p.session)
}

var (
	pageType       = reflect.TypeOf(Page{})
	elementType    = reflect.TypeOf((*element.Element)(nil))
	collectionType = reflect.TypeOf((*element.Collection)(nil))
)

// Attach binds every exported handle field of obj, and of the structs it
// embeds or holds, to s. Embedded Page values receive the session too. Nil
// handles are left alone.
func Attach(s driver.Session, obj any) error {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", ErrNotStruct, obj)
	}
	attach(s, v.Elem(), make(map[visit]bool))
	return nil
}

// visit identifies a struct value. A struct and its first field share an
// address, so the type is part of the key.
type visit struct {
	addr uintptr
	typ  reflect.Type
}

func attach(s driver.Session, v reflect.Value, seen map[visit]bool) {
	if v.CanAddr() {
		k := visit{v.Addr().Pointer(), v.Type()}
		if seen[k] {
			return
		}
		seen[k] = true
	}
	if v.Type() == pageType {
		if v.CanSet() {
			v.Set(reflect.ValueOf(Page{session: s}))
		}
		return
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		f := v.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}
		switch {
		case f.Type() == elementType:
			if !f.IsNil() && f.CanInterface() {
				f.Interface().(*element.Element).Bind(s)
			}
		case f.Type() == collectionType:
			if !f.IsNil() && f.CanInterface() {
				f.Interface().(*element.Collection).Bind(s)
			}
		case f.Kind() == reflect.Struct:
			attach(s, f, seen)
		case f.Kind() == reflect.Pointer && f.Type().Elem().Kind() == reflect.Struct:
			if !f.IsNil() && f.CanInterface() {
				attach(s, f.Elem(), seen)
			}
		}
	}
}
