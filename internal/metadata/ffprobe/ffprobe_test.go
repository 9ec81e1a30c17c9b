package ffprobe

import (
	"math"
	"testing"
)

const sampleEXRProbe = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "exr",
      "codec_type": "video",
      "width": 4096,
      "height": 2160,
      "r_frame_rate": "25/1",
      "avg_frame_rate": "25/1",
      "tags": {"timecode": "01:00:00:00", "framesPerSecond": "24000/1001"}
    }
  ],
  "format": {"filename": "plate.1001.exr", "nb_streams": 1, "format_name": "exr_pipe"}
}`

func TestParseExtractsTimecodeAndRate(t *testing.T) {
	result, err := Parse([]byte(sampleEXRProbe))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tc := result.Timecode(); tc != "01:00:00:00" {
		t.Fatalf("unexpected timecode: %q", tc)
	}
	if rate := result.FrameRate(); math.Abs(rate-23.976) > 0.001 {
		t.Fatalf("unexpected rate: %v", rate)
	}
	if result.Format.Filename != "plate.1001.exr" || !result.StillImage() {
		t.Fatalf("unexpected format: %+v", result.Format)
	}
}

func TestFrameRateIgnoresStillImagePlaceholder(t *testing.T) {
	result, err := Parse([]byte(`{
  "streams": [{"codec_type": "video", "r_frame_rate": "25/1", "avg_frame_rate": "25/1"}],
  "format": {"filename": "plate.1001.dpx", "format_name": "dpx_pipe"}
}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rate := result.FrameRate(); rate != 0 {
		t.Fatalf("expected no rate for a still image without a rate tag, got %v", rate)
	}

	result.Format.FormatName = "image2"
	if rate := result.FrameRate(); rate != 0 {
		t.Fatalf("expected no rate for image2, got %v", rate)
	}
}

func TestFrameRateTrustsMovieContainers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", RFrameRate: "24000/1001"}},
		Format:  Format{FormatName: "mov,mp4,m4a,3gp,3g2,mj2"},
	}
	if result.StillImage() {
		t.Fatal("movie container reported as still image")
	}
	if rate := result.FrameRate(); math.Abs(rate-23.976) > 0.001 {
		t.Fatalf("unexpected rate: %v", rate)
	}
}

func TestResultHelpersHandleMissingFields(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", RFrameRate: "48000/1"},
			{CodecType: "video", RFrameRate: "0/0", AvgFrameRate: "bad"},
		},
		Format: Format{Tags: map[string]string{"TIMECODE": " 00:00:10:00 "}},
	}
	if tc := result.Timecode(); tc != "00:00:10:00" {
		t.Fatalf("expected container timecode, got %q", tc)
	}
	if rate := result.FrameRate(); rate != 0 {
		t.Fatalf("expected rate 0, got %v", rate)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
