package gameid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Namespace 比赛ID映射的命名空间UUID（与桥接服务保持一致，不可变更）
var Namespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// ToUUID 由上游原生比赛ID确定性派生内部UUID（UUIDv5，同一原生ID永远得到同一UUID）
func ToUUID(nativeID string) (string, error) {
	normalized := strings.TrimSpace(nativeID)
	if normalized == "" {
		return "", fmt.Errorf("原生比赛ID不能为空")
	}
	return uuid.NewSHA1(Namespace, []byte(normalized)).String(), nil
}

// IsNativeID 判断是否为上游原生比赛ID（10位纯数字，如 "0022300123"）
func IsNativeID(gameID string) bool {
	if len(gameID) != 10 {
		return false
	}
	for _, c := range gameID {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsValidUUID 判断是否为合法UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
