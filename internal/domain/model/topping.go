package model

import "encoding/json"

// 商品間で共有するトッピング。初回利用時に作成される。
type Topping struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex"`
}

// JSONでは名前だけを出す
func (t Topping) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Name)
}

func (t *Topping) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &t.Name)
}

func ToppingsFromNames(names []string) []Topping {
	out := make([]Topping, 0, len(names))
	for _, n := range names {
		out = append(out, Topping{Name: n})
	}
	return out
}
