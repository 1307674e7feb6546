package douyin

import "testing"

func TestExtractShareURL(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "typical share text",
			input:  "7.43 复制打开抖音，看看【小王的作品】今天的晚霞 # 日常 https://v.douyin.com/iRNBho6u/ Mwc:/ x@S.yt 12/25",
			want:   "https://v.douyin.com/iRNBho6u/",
			wantOK: true,
		},
		{
			name:   "bare url",
			input:  "https://v.douyin.com/abc_123",
			want:   "https://v.douyin.com/abc_123",
			wantOK: true,
		},
		{
			name:   "first of several",
			input:  "a https://v.douyin.com/first/ b https://v.douyin.com/second/",
			want:   "https://v.douyin.com/first/",
			wantOK: true,
		},
		{
			name:   "stops at punctuation",
			input:  "看这个https://v.douyin.com/Zx9k/，太好笑了",
			want:   "https://v.douyin.com/Zx9k/",
			wantOK: true,
		},
		{
			name:   "http scheme is not matched",
			input:  "http://v.douyin.com/abc/",
			wantOK: false,
		},
		{
			name:   "other host",
			input:  "https://www.douyin.com/video/123",
			wantOK: false,
		},
		{
			name:   "empty",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractShareURL(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ExtractShareURL() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractShareURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
