package adapter

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

// scriptFile is the on-disk tick script layout. Prices arrive as decimal
// strings, the way exchange payloads quote them.
type scriptFile struct {
	Symbols map[string][]decimal.Decimal `json:"symbols"`
}

// LoadTickScripts reads a JSON tick script and installs one price sequence
// per symbol into the paper exchange.
func LoadTickScripts(p *Paper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read tick script")
	}
	var file scriptFile
	if err := json.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, "parse tick script")
	}
	if len(file.Symbols) == 0 {
		return errors.New("tick script has no symbols")
	}
	for symbol, quotes := range file.Symbols {
		prices := make([]float64, 0, len(quotes))
		for _, q := range quotes {
			price, err := strconv.ParseFloat(q.String(), 64)
			if err != nil {
				return errors.Wrap(err, "parse price for "+symbol)
			}
			prices = append(prices, price)
		}
		p.LoadScript(symbol, prices)
	}
	return nil
}
