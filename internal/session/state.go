package session

import (
	"encoding/json"

	"factoryqa-data/internal/auth"
)

// FieldValue 单个问题的回答。
// 单选/文本字段序列化为 JSON 字符串，多选字段序列化为字符串数组，
// 两种形态解码时都接受
type FieldValue struct {
	Values []string
	List   bool
}

// StringValue 单值回答
func StringValue(v string) FieldValue {
	return FieldValue{Values: []string{v}}
}

// ListValue 多选回答
func ListValue(vs []string) FieldValue {
	return FieldValue{Values: vs, List: true}
}

// String 单值形态；多选时返回首个值
func (f FieldValue) String() string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[0]
}

// IsEmpty 是否为空回答
func (f FieldValue) IsEmpty() bool {
	for _, v := range f.Values {
		if v != "" {
			return false
		}
	}
	return true
}

func (f FieldValue) MarshalJSON() ([]byte, error) {
	if f.List {
		vs := f.Values
		if vs == nil {
			vs = []string{}
		}
		return json.Marshal(vs)
	}
	return json.Marshal(f.String())
}

func (f *FieldValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = StringValue(s)
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return err
	}
	*f = ListValue(vs)
	return nil
}

// SignOffRecord 一次 PIN 签核
type SignOffRecord struct {
	Pin       string         `json:"pin"`
	Signatory auth.Signatory `json:"signatory"`
	Timestamp string         `json:"timestamp"`
}

// State 会话负载（qa_sessions.data 的实际形状）。
// 四个按步索引的数组恒为 StepCount 长度，Normalize 负责补齐/截断
type State struct {
	CurrentStep    int                   `json:"currentStep"`
	Responses      map[string]FieldValue `json:"responses"`
	SignOffPins    []string              `json:"signOffPins"`
	SignOffRecords []*SignOffRecord      `json:"signOffRecords"`
	Photos         [][]string            `json:"photos"`
}

// NewState 空白会话
func NewState() *State {
	s := &State{}
	s.Normalize()
	return s
}

// Normalize 把部分加载的状态修整为不变形状：
// 数组补齐/截断到 StepCount，CurrentStep 收敛到 [0, StepCount-1]
func (s *State) Normalize() {
	if s.Responses == nil {
		s.Responses = make(map[string]FieldValue)
	}

	pins := make([]string, StepCount)
	copy(pins, s.SignOffPins)
	s.SignOffPins = pins

	records := make([]*SignOffRecord, StepCount)
	copy(records, s.SignOffRecords)
	s.SignOffRecords = records

	photos := make([][]string, StepCount)
	copy(photos, s.Photos)
	for i := range photos {
		if photos[i] == nil {
			photos[i] = []string{}
		}
	}
	s.Photos = photos

	if s.CurrentStep < 0 {
		s.CurrentStep = 0
	}
	if s.CurrentStep > StepCount-1 {
		s.CurrentStep = StepCount - 1
	}
}

// IsBlank 会话是否空白（无回答、无照片、无签核记录）。
// 只有空白会话才允许从 qaItems 回填，避免覆盖进行中的工作
func (s *State) IsBlank() bool {
	for _, v := range s.Responses {
		if !v.IsEmpty() {
			return false
		}
	}
	for _, rec := range s.SignOffRecords {
		if rec != nil {
			return false
		}
	}
	for _, list := range s.Photos {
		if len(list) > 0 {
			return false
		}
	}
	return true
}
