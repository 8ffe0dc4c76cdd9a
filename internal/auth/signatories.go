// Package auth PIN → 签核人解析与角色准入。
// 注册表为静态内置（离线场景没有账号体系，PIN 即身份）
package auth

import "strings"

// Signatory 签核人
type Signatory struct {
	Pin  string `json:"pin"`
	Name string `json:"name"`
	Role string `json:"role"`
}

var signatoryRegistry = []Signatory{
	{Pin: "1204", Name: "Jonathan Tagasa", Role: "Shift Leader"},
	{Pin: "4521", Name: "Zeus Guillergan", Role: "Production Staff"},
	{Pin: "9033", Name: "Thomas Kaestner", Role: "Production Manager"},
	{Pin: "7742", Name: "Reny Guerrero", Role: "Production Staff"},
	{Pin: "3387", Name: "Stephen Phipps", Role: "Factory Manager"},
}

// Registry 签核人注册表
type Registry struct {
	byPin  map[string]*Signatory
	byName map[string]*Signatory
	list   []Signatory
}

// NewRegistry 构造内置注册表
func NewRegistry() *Registry {
	return newRegistry(signatoryRegistry)
}

func newRegistry(entries []Signatory) *Registry {
	r := &Registry{
		byPin:  make(map[string]*Signatory, len(entries)),
		byName: make(map[string]*Signatory, len(entries)),
		list:   make([]Signatory, len(entries)),
	}
	copy(r.list, entries)
	for i := range r.list {
		entry := &r.list[i]
		r.byPin[entry.Pin] = entry
		r.byName[normalizeName(entry.Name)] = entry
	}
	return r
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve 按 4 位 PIN 查签核人
func (r *Registry) Resolve(pin string) (*Signatory, bool) {
	s, ok := r.byPin[strings.TrimSpace(pin)]
	if !ok {
		return nil, false
	}
	out := *s
	return &out, true
}

// ResolveByName 按姓名查签核人（忽略大小写与首尾空白，精确匹配）。
// 旧 QA 行只存 signee 姓名，重建签核记录时用它反查 PIN 与角色
func (r *Registry) ResolveByName(name string) (*Signatory, bool) {
	s, ok := r.byName[normalizeName(name)]
	if !ok {
		return nil, false
	}
	out := *s
	return &out, true
}

// List 注册表快照
func (r *Registry) List() []Signatory {
	out := make([]Signatory, len(r.list))
	copy(out, r.list)
	return out
}

// IsAllowed 角色准入：allowedRoles 为空表示任何已解析签核人均可；
// 匹配忽略大小写与首尾空白
func IsAllowed(s *Signatory, allowedRoles []string) bool {
	if s == nil {
		return false
	}
	if len(allowedRoles) == 0 {
		return true
	}
	role := strings.ToLower(strings.TrimSpace(s.Role))
	for _, allowed := range allowedRoles {
		if role == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}
