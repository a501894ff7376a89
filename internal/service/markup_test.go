package service

import "testing"

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"breaks to newlines", "a<br>b<br/>c<br />d", "a\nb\nc\nd"},
		{"tags dropped", "<p>x</p> <strong>y</strong>", "x y"},
		{"escapes restored", "1 &lt; 2 &gt; 0", "1 < 2 > 0"},
		{"plain text untouched", "hello world", "hello world"},
		{"image element dropped", `a<img src="/resource/x.png" alt="x.png">`, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.in); got != tt.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContainsKeyMarker(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		marker string
		want   bool
	}{
		{"marker in stream error", "流式响应错误: 聊天失败: 请先设置API密钥", "请先设置API密钥", true},
		{"marker absent", "聊天失败: connection refused", "请先设置API密钥", false},
		{"empty marker never matches", "anything", "", false},
		{"custom marker", "error: no api key set", "no api key", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsKeyMarker(tt.text, tt.marker); got != tt.want {
				t.Errorf("ContainsKeyMarker(%q, %q) = %v, want %v", tt.text, tt.marker, got, tt.want)
			}
		})
	}
}
