package main

import (
	"github.com/shouni/gemini-image-editor/cmd"
)

// main はコマンドライン引数の解析と実行をすべて cmd パッケージに委ねます。
func main() {
	cmd.Execute()
}
