package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Of 计算payload的内容指纹：先做规范化序列化（对象key按字典序排序、紧凑格式），
// 再取sha-256十六进制。序列化相同的payload指纹必然相同，指纹是变更判定的唯一依据。
func Of(payload []byte) (string, error) {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Canonicalize JSON规范化：反序列化后重新marshal，map key天然按字典序输出
func Canonicalize(payload []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("payload不是合法JSON: %w", err)
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("规范化序列化失败: %w", err)
	}
	return canonical, nil
}
