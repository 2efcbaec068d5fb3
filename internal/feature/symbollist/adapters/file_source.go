package adapters

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"stock_trend/internal/feature/symbollist/usecase"
)

// FileSource は1行1銘柄のテキストファイルから銘柄リストを読み込みます。
// 空行と # で始まる行は無視します。
type FileSource struct {
	path string
}

var _ usecase.SymbolSource = (*FileSource)(nil)

// NewFileSource は新しい FileSource を作成します。
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Symbols はファイルに記載された銘柄を記載順に返します。正規化は行いません。
func (s *FileSource) Symbols(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open symbol file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read symbol file: %w", err)
	}
	return out, nil
}
