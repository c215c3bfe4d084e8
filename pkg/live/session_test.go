package live

import (
	"encoding/base64"
	"testing"
)

func TestDecodeServerFrame(t *testing.T) {
	audio := base64.StdEncoding.EncodeToString(make([]byte, 960))

	tests := []struct {
		name string
		data string
		want []string
	}{
		{
			name: "setup complete",
			data: `{"setupComplete":{}}`,
			want: []string{"setup_complete"},
		},
		{
			name: "audio chunk",
			data: `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` + audio + `"}}]}}}`,
			want: []string{"audio_chunk"},
		},
		{
			name: "input transcript",
			data: `{"serverContent":{"inputTranscription":{"text":"hello "}}}`,
			want: []string{"input_transcript"},
		},
		{
			name: "output transcript",
			data: `{"serverContent":{"outputTranscription":{"text":"hi there"}}}`,
			want: []string{"output_transcript"},
		},
		{
			name: "turn complete",
			data: `{"serverContent":{"turnComplete":true}}`,
			want: []string{"turn_complete"},
		},
		{
			name: "interrupted",
			data: `{"serverContent":{"interrupted":true}}`,
			want: []string{"interrupted"},
		},
		{
			name: "go away",
			data: `{"goAway":{"timeLeft":"10s"}}`,
			want: []string{"go_away"},
		},
		{
			name: "combined frame keeps order",
			data: `{"serverContent":{"inputTranscription":{"text":"a"},"outputTranscription":{"text":"b"},"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` + audio + `"}}]},"turnComplete":true}}`,
			want: []string{"input_transcript", "output_transcript", "audio_chunk", "turn_complete"},
		},
		{
			name: "unrecognized frame",
			data: `{"somethingNew":{}}`,
			want: []string{"unknown"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			events, err := decodeServerFrame([]byte(tc.data))
			if err != nil {
				t.Fatalf("decodeServerFrame: %v", err)
			}
			if len(events) != len(tc.want) {
				t.Fatalf("got %d events, want %d: %#v", len(events), len(tc.want), events)
			}
			for i, want := range tc.want {
				if got := events[i].eventType(); got != want {
					t.Fatalf("event %d = %s, want %s", i, got, want)
				}
			}
		})
	}
}

func TestDecodeServerFrame_AudioChunkPayload(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	data := `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=16000","data":"` + base64.StdEncoding.EncodeToString(pcm) + `"}}]}}}`

	events, err := decodeServerFrame([]byte(data))
	if err != nil {
		t.Fatalf("decodeServerFrame: %v", err)
	}
	chunk, ok := events[0].(AudioChunkEvent)
	if !ok {
		t.Fatalf("event = %#v, want AudioChunkEvent", events[0])
	}
	if string(chunk.Data) != string(pcm) {
		t.Fatalf("data = %v, want %v", chunk.Data, pcm)
	}
	if chunk.SampleRate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", chunk.SampleRate)
	}
	if chunk.Channels != 1 {
		t.Fatalf("channels = %d, want 1", chunk.Channels)
	}
}

func TestDecodeServerFrame_BadAudioBase64(t *testing.T) {
	data := `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"%%%"}}]}}}`
	if _, err := decodeServerFrame([]byte(data)); err == nil {
		t.Fatalf("malformed base64 accepted")
	}
}

func TestDecodeServerFrame_Malformed(t *testing.T) {
	if _, err := decodeServerFrame([]byte(`{"serverContent":`)); err == nil {
		t.Fatalf("malformed JSON accepted")
	}
}

func TestRateFromMIME(t *testing.T) {
	tests := []struct {
		mime string
		want int
	}{
		{"audio/pcm;rate=24000", 24000},
		{"audio/pcm; rate=16000", 16000},
		{"audio/pcm", OutputSampleRate},
		{"audio/pcm;rate=abc", OutputSampleRate},
		{"audio/pcm;rate=0", OutputSampleRate},
		{"", OutputSampleRate},
	}
	for _, tc := range tests {
		if got := rateFromMIME(tc.mime); got != tc.want {
			t.Fatalf("rateFromMIME(%q) = %d, want %d", tc.mime, got, tc.want)
		}
	}
}
