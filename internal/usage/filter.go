package usage

import (
	"strings"

	"github.com/samber/lo"

	"github.com/langchou/wattgazer/internal/models"
)

// MatchReason 设备范围的判定依据
type MatchReason string

const (
	MatchNoHint        MatchReason = "no_hint"        // 未提及设备
	MatchByName        MatchReason = "name"           // 名称匹配
	MatchByType        MatchReason = "type"           // 类型匹配
	MatchNameAmbiguous MatchReason = "name_ambiguous" // 名称未匹配，退化为全部设备
	MatchTypeAmbiguous MatchReason = "type_ambiguous" // 类型未匹配，退化为全部设备
)

// Scope 查询涉及的设备范围
type Scope struct {
	DeviceIDs []int64 // nil 表示不过滤
	Reason    MatchReason
}

// All 是否包含用户的全部设备
func (s Scope) All() bool {
	return s.DeviceIDs == nil
}

// Ambiguous 提示词存在但没有匹配到设备
func (s Scope) Ambiguous() bool {
	return s.Reason == MatchNameAmbiguous || s.Reason == MatchTypeAmbiguous
}

// MatchDevices 根据名称或类型提示确定设备范围。
// 名称提示：不区分大小写的子串匹配，按列表顺序取第一个。
// 类型提示：仅在没有名称提示时使用，不区分大小写的精确匹配，可匹配多个。
// 任何未匹配的提示都退化为不过滤。
func MatchDevices(devices []*models.Device, nameHint, typeHint string) Scope {
	nameHint = strings.ToLower(strings.TrimSpace(nameHint))
	typeHint = strings.TrimSpace(typeHint)

	if nameHint != "" {
		device, ok := lo.Find(devices, func(d *models.Device) bool {
			return strings.Contains(strings.ToLower(d.Name), nameHint)
		})
		if !ok {
			return Scope{Reason: MatchNameAmbiguous}
		}
		return Scope{DeviceIDs: []int64{device.ID}, Reason: MatchByName}
	}

	if typeHint != "" {
		matched := lo.Filter(devices, func(d *models.Device, _ int) bool {
			return strings.EqualFold(d.Type, typeHint)
		})
		if len(matched) == 0 {
			return Scope{Reason: MatchTypeAmbiguous}
		}
		return Scope{
			DeviceIDs: lo.Map(matched, func(d *models.Device, _ int) int64 { return d.ID }),
			Reason:    MatchByType,
		}
	}

	return Scope{Reason: MatchNoHint}
}
