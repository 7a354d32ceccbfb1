package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// KWh 千瓦时。JSON 中输出为保留两位小数的字符串，例如 "0.10"
type KWh float64

// Round 四舍五入到两位小数（远离零方向）
func (k KWh) Round() KWh {
	return KWh(math.Round(float64(k)*100) / 100)
}

// String 两位小数的展示形式
func (k KWh) String() string {
	return strconv.FormatFloat(float64(k.Round()), 'f', 2, 64)
}

func (k KWh) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON 同时接受字符串和数字
func (k *KWh) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse kwh %q: %w", s, err)
		}
		*k = KWh(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode kwh: %w", err)
	}
	*k = KWh(f)
	return nil
}

// DeviceUsage 单个设备的用电量
type DeviceUsage struct {
	Device string
	KWh    KWh
}

// Breakdown 按设备名的用电明细，保持首次出现的顺序。
// JSON 中编码为对象 {"设备名": "0.12", ...}，键顺序与切片顺序一致。
type Breakdown []DeviceUsage

// Get 按设备名查找
func (b Breakdown) Get(device string) (KWh, bool) {
	for _, u := range b {
		if u.Device == device {
			return u.KWh, true
		}
	}
	return 0, false
}

// Sum 明细合计
func (b Breakdown) Sum() KWh {
	var total KWh
	for _, u := range b {
		total += u.KWh
	}
	return total
}

func (b Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, u := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(u.Device)
		if err != nil {
			return nil, err
		}
		val, err := u.KWh.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 按对象中键的出现顺序还原明细
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode breakdown: %w", err)
	}
	if tok == nil {
		*b = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode breakdown: expected object, got %v", tok)
	}

	out := Breakdown{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode breakdown key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode breakdown: unexpected key %v", keyTok)
		}
		var v KWh
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode breakdown value for %q: %w", key, err)
		}
		out = append(out, DeviceUsage{Device: key, KWh: v})
	}
	*b = out
	return nil
}

// SeriesPoint 图表时间序列中的一个点
type SeriesPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Device      string    `json:"device"`
	EnergyWatts float64   `json:"energy_watts"`
}

// UsageReport 用电问答的结构化结果
type UsageReport struct {
	Summary            string        `json:"summary"`
	TotalUsageKwh      KWh           `json:"total_usage_kwh"`
	DeviceBreakdownKwh Breakdown     `json:"device_breakdown_kwh"`
	Series             []SeriesPoint `json:"series"`
}
