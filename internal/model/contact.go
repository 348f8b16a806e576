package model

import (
	"strconv"
	"strings"
)

// Contact is the managed business record.
type Contact struct {
	ID            int64  `json:"id_contacto"`
	Name          string `json:"nombre"`
	FirstSurname  string `json:"primer_apellido"`
	SecondSurname string `json:"segundo_apellido"`
	Email         string `json:"email"`
	Phone         string `json:"telefono"`
}

// ContactRequest is the body of create and full update requests.
type ContactRequest struct {
	Name          string `json:"nombre"`
	FirstSurname  string `json:"primer_apellido"`
	SecondSurname string `json:"segundo_apellido"`
	Email         string `json:"email"`
	Phone         string `json:"telefono"`
}

// ContactPatch is the body of a partial update. Nil fields are left untouched.
type ContactPatch struct {
	Name          *string `json:"nombre"`
	FirstSurname  *string `json:"primer_apellido"`
	SecondSurname *string `json:"segundo_apellido"`
	Email         *string `json:"email"`
	Phone         *string `json:"telefono"`
}

// Apply copies the request's fields onto c, keeping the id.
func (r ContactRequest) Apply(c *Contact) {
	c.Name = r.Name
	c.FirstSurname = r.FirstSurname
	c.SecondSurname = r.SecondSurname
	c.Email = r.Email
	c.Phone = r.Phone
}

// Apply copies the non-nil fields of the patch onto c.
func (p ContactPatch) Apply(c *Contact) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.FirstSurname != nil {
		c.FirstSurname = *p.FirstSurname
	}
	if p.SecondSurname != nil {
		c.SecondSurname = *p.SecondSurname
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
}

// DeleteContactResponse confirms a deletion and echoes the removed record.
type DeleteContactResponse struct {
	Message string  `json:"message"`
	Contact Contact `json:"contact"`
}

// ContactRef addresses a contact either by id or by exact email.
// Exactly one of the fields is set.
type ContactRef struct {
	ID    int64
	Email string
}

// ParseContactRef interprets a path segment: a positive integer is an id,
// anything else is treated as an email.
func ParseContactRef(s string) ContactRef {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
		return ContactRef{ID: id}
	}
	return ContactRef{Email: strings.ToLower(s)}
}

// String renders the ref for logs.
func (r ContactRef) String() string {
	if r.Email == "" {
		return "id=" + strconv.FormatInt(r.ID, 10)
	}
	return "email=" + r.Email
}
