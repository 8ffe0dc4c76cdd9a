package session

import (
	"encoding/json"
	"strings"

	"factoryqa-data/internal/auth"
	"factoryqa-data/internal/domain"
)

// 多选结果在 qaItems.result 中的连接符
const listJoinSeparator = " | "

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// titleQueue 按标题分组的 FIFO 队列。
// 同一标题出现多次时按位置依次消费，消费过的行不再参与匹配
type titleQueue struct {
	items    []domain.AccessQAItem
	pending  map[string][]int
	consumed []bool
}

func newTitleQueue(items []domain.AccessQAItem) *titleQueue {
	q := &titleQueue{
		items:    items,
		pending:  make(map[string][]int),
		consumed: make([]bool, len(items)),
	}
	for i := range items {
		key := normalizeTitle(items[i].Title)
		q.pending[key] = append(q.pending[key], i)
	}
	return q
}

func (q *titleQueue) take(title string) (domain.AccessQAItem, bool) {
	key := normalizeTitle(title)
	idxs := q.pending[key]
	if len(idxs) == 0 {
		return domain.AccessQAItem{}, false
	}
	idx := idxs[0]
	q.pending[key] = idxs[1:]
	q.consumed[idx] = true
	return q.items[idx], true
}

// leftovers 未被消费的行，保持原始顺序
func (q *titleQueue) leftovers() []domain.AccessQAItem {
	var rest []domain.AccessQAItem
	for i := range q.items {
		if !q.consumed[i] {
			rest = append(rest, q.items[i])
		}
	}
	return rest
}

var listSplitSeparators = map[rune]bool{'|': true, ',': true, ';': true}

// decodeList 把 qaItems 中的复合值还原为列表：
// 先尝试 JSON 数组解码，失败则按固定分隔符集 [|,;] 拆分
func decodeList(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var decoded []string
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		return decoded
	}

	var values []string
	for _, part := range strings.FieldsFunc(trimmed, func(r rune) bool {
		return listSplitSeparators[r]
	}) {
		if p := strings.TrimSpace(part); p != "" {
			values = append(values, p)
		}
	}
	return values
}

func encodeList(values []string) string {
	return strings.Join(values, listJoinSeparator)
}

// ApplyQAItemsToState 把构件的平铺 qaItems 回填到空白会话。
// 仅在会话空白时执行（返回 false 表示已有进行中的工作，原样保留）。
// 问题行按标题 FIFO 消费写入 responses；每步的签核/拍照行
// 按步骤标题消费：signee 姓名反查注册表重建签核记录，
// photoTaken 解码为照片列表
func ApplyQAItemsToState(state *State, items []domain.AccessQAItem, tpl Template, reg *auth.Registry) bool {
	state.Normalize()
	if !state.IsBlank() {
		return false
	}

	queue := newTitleQueue(items)

	for _, q := range tpl.Questions {
		item, ok := queue.take(q.Title)
		if !ok || strings.TrimSpace(item.Result) == "" {
			continue
		}
		if q.Multi {
			state.Responses[q.Field] = ListValue(decodeList(item.Result))
		} else {
			state.Responses[q.Field] = StringValue(item.Result)
		}
	}

	for step := 0; step < StepCount; step++ {
		item, ok := queue.take(tpl.StepTitles[step])
		if !ok {
			continue
		}
		if name := strings.TrimSpace(item.Signee); name != "" {
			if sig, ok := reg.ResolveByName(name); ok {
				state.SignOffPins[step] = sig.Pin
				state.SignOffRecords[step] = &SignOffRecord{
					Pin:       sig.Pin,
					Signatory: *sig,
					Timestamp: item.Timestamp,
				}
			}
		}
		if photos := decodeList(item.PhotoTaken); len(photos) > 0 {
			state.Photos[step] = photos
		}
	}
	return true
}

// ProjectStateToQAItems 反向投影：把会话状态写回平铺 qaItems。
// 已有行按标题 FIFO 复用，没有则合成空白行；列表值用 " | " 连接，
// 照片编码为 JSON 数组（为空时置 ""）。幂等：对同一会话重复运行
// 得到逐字节相同的结果
func ProjectStateToQAItems(existing []domain.AccessQAItem, state *State, tpl Template) []domain.AccessQAItem {
	state.Normalize()
	queue := newTitleQueue(existing)
	out := make([]domain.AccessQAItem, 0, len(tpl.Questions)+StepCount+len(existing))

	for _, q := range tpl.Questions {
		item, ok := queue.take(q.Title)
		if !ok {
			item = domain.AccessQAItem{Title: q.Title}
		}
		if val, ok := state.Responses[q.Field]; ok {
			if val.List {
				item.Result = encodeList(val.Values)
			} else {
				item.Result = val.String()
			}
		} else {
			item.Result = ""
		}
		out = append(out, item)
	}

	for step := 0; step < StepCount; step++ {
		item, ok := queue.take(tpl.StepTitles[step])
		if !ok {
			item = domain.AccessQAItem{Title: tpl.StepTitles[step]}
		}
		if rec := state.SignOffRecords[step]; rec != nil {
			item.Signee = rec.Signatory.Name
			item.Timestamp = rec.Timestamp
		} else {
			item.Signee = ""
			item.Timestamp = ""
		}
		if photos := state.Photos[step]; len(photos) > 0 {
			encoded, err := json.Marshal(photos)
			if err == nil {
				item.PhotoTaken = string(encoded)
			}
		} else {
			item.PhotoTaken = ""
		}
		out = append(out, item)
	}

	return append(out, queue.leftovers()...)
}
