package adapter

import "github.com/google/uuid"

// ToolResult 所有适配器操作的统一返回信封。
// Success 表示操作整体是否成功，部分关键词失败但拿到了内容仍算成功，
// 细节通过 Metadata 暴露。
type ToolResult struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// newMetadata 构造带请求 ID 和平台标识的元数据
func newMetadata(platform string) map[string]any {
	return map[string]any{
		"request_id": uuid.NewString(),
		"platform":   platform,
	}
}

// okResult 成功结果
func okResult(platform string, data any) *ToolResult {
	return &ToolResult{
		Success:  true,
		Data:     data,
		Metadata: newMetadata(platform),
	}
}

// ErrKindInvalidRequest 标记因调用方参数问题导致的失败，
// HTTP 层据此返回 4xx 而不是 5xx
const ErrKindInvalidRequest = "invalid_request"

// failResult 失败结果
func failResult(platform string, err error) *ToolResult {
	return &ToolResult{
		Success:  false,
		Error:    err.Error(),
		Metadata: newMetadata(platform),
	}
}

// invalidResult 调用方参数错误的失败结果
func invalidResult(platform string, err error) *ToolResult {
	r := failResult(platform, err)
	r.Metadata["error_kind"] = ErrKindInvalidRequest
	return r
}

// IsInvalidRequest 判断失败是否由调用方参数问题导致
func (r *ToolResult) IsInvalidRequest() bool {
	if r.Metadata == nil {
		return false
	}
	kind, _ := r.Metadata["error_kind"].(string)
	return kind == ErrKindInvalidRequest
}
