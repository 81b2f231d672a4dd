package extract

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		filename string
		want     FileKind
	}{
		{"report.pdf", KindPDF},
		{"report.PDF", KindPDF},
		{"scan.heic", KindImage},
		{"photo.JPG", KindImage},
		{"photo.jpeg", KindImage},
		{"page.png", KindImage},
		{"anim.gif", KindImage},
		{"bitmap.bmp", KindImage},
		{"fax.tiff", KindImage},
		{"still.heif", KindImage},
		{"archive.zip", KindUnsupported},
		{"notes.txt", KindUnsupported},
		{"no-extension", KindUnsupported},
		{"", KindUnsupported},
		{"trailing.pdf.exe", KindUnsupported},
	}

	for _, c := range cases {
		if got := Classify(c.filename); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.filename, got, c.want)
		}
	}
}

func TestIsHEIC(t *testing.T) {
	t.Parallel()

	if !IsHEIC("scan.heic") || !IsHEIC("scan.HEIF") {
		t.Fatalf("expected heic/heif extensions to be recognized")
	}
	if IsHEIC("scan.png") {
		t.Fatalf("png must not be treated as heic")
	}
}
