package chiasenhac

import (
	"fmt"
	"strings"
)

const homePage = `<!DOCTYPE html>
<html><head><title>Chia Sẻ Nhạc</title></head>
<body>
<nav>
  <form name="song_list" action="/tim-kiem?s=" method="get">
    <input type="text" name="q" placeholder="Tìm kiếm">
  </form>
</nav>
</body></html>`

// searchPage renders a results page with songs first..last; the leading li is a tab header without h5.
func searchPage(first, last int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="tab-content"><div id="nav-music" class="tab-pane"><ul class="list-unstyled">`)
	b.WriteString(`<li class="nav-item"><a class="nav-link" href="#music">Bài hát</a></li>`)
	for i := first; i <= last; i++ {
		fmt.Fprintf(&b, `
<li class="media align-items-stretch">
  <div class="media-left"><img src="/cover/%[1]d.jpg"></div>
  <div class="media-body">
    <h5 class="media-title mt-0 mb-0"><a href="/mp3/us-uk/song-%[1]d.html" title="Song %[1]d">Song %[1]d</a></h5>
    <div class="author">Artist %[1]d</div>
  </div>
</li>`, i)
	}
	b.WriteString(`</ul></div></div></body></html>`)
	return b.String()
}

const legacySearchPage = `<html><body>
<table class="tbtable" width="100%">
  <tr><th>STT</th><th>Bài hát</th><th>Chất lượng</th></tr>
  <tr>
    <td><p>1</p></td>
    <td><div class="tenbh"><p><a href="http://chiasenhac.vn/mp3/us-uk/hello~adele.html">Hello</a></p><p>Adele</p></div></td>
    <td><span>320kbps</span></td>
  </tr>
  <tr>
    <td><p>2</p></td>
    <td><div class="tenbh"><p><a href="http://chiasenhac.vn/mp3/us-uk/skyfall~adele.html">Skyfall</a></p><p>Adele</p></div></td>
    <td><span>Lossless</span></td>
  </tr>
  <tr>
    <td><p>3</p></td>
    <td><div class="tenbh"><p><a href="http://chiasenhac.vn/mp3/us-uk/someone~adele.html">Someone Like You</a></p><p>Adele</p></div></td>
    <td><span>128kbps</span></td>
  </tr>
</table>
</body></html>`

const songPage = `<html><body>
<div class="tab-content">
  <div class="tab-pane" id="pills-plus">
    <h4 class="card-title"><span>  Hello  </span></h4>
    <ul class="list-unstyled">
      <li><span>Ca sĩ: </span><a href="/ca-si/adele.html">Adele</a></li>
      <li><span>Album: </span><a href="/nghe-album/25.html">25</a></li>
      <li><span>Năm phát hành: </span>2015</li>
      <li><span>Lượt nghe: </span>1,234,567</li>
    </ul>
  </div>
</div>
<div id="fulllyric">Hello, it's me<br/>I was wondering if after all these years you'd like to meet<br/><br/>
  <span>To go over everything</span>
</div>
<div class="download_status">
  <a class="download_item" href="https://data.chiasenhac.com/down2/2150/1/2149236-f95a7bf6/128/Hello.mp3" title="Click to download">
    <span><i class="material-icons">file_download</i></span> Link tải <span class="c1">128kbps</span> 3.93 MB
  </a>
  <a class="download_item" href="https://data.chiasenhac.com/down2/2150/1/2149236-f95a7bf6/320/Hello.mp3" title="Click to download">
    <span><i class="material-icons">file_download</i></span> Link tải <span class="c2">320kbps</span> 9.83 MB
  </a>
  <a class="download_item" href="https://data.chiasenhac.com/down2/2150/1/2149236-f95a7bf6/flac/Hello.flac" title="Click to download">
    <span><i class="material-icons">file_download</i></span> Link tải <span class="c4">Lossless</span> 30.12 MB
  </a>
  <a class="download_item" href="/down2/2150/1/2149236-f95a7bf6/32/Hello.m4a" title="Click to download">
    <span><i class="material-icons">file_download</i></span> M4A 32kbps 1.03 MB
  </a>
  <a class="download_item" title="Video">
    <span><i class="material-icons">file_download</i></span> Link tải <span>Video 720p</span> 45 MB
  </a>
</div>
</body></html>`

const legacySongPage = `<html><body>
<div id="fulllyric">
  <strong><a href="http://chiasenhac.vn/mp3/legacy/hello.html">  Hello </a></strong>
  <p>Ca sĩ: <b>Adele</b></p>
  <p>Album: <b><a href="http://chiasenhac.vn/nghe-album/25.html">25</a></b></p>
  <p>Năm phát hành: <b>2015</b></p>
  <p class="genmed">Hello, it's me<br/>
  I was wondering<br/></p>
</div>
</body></html>`

const legacyDownloadPage = `<html><body>
<div id="downloadlink">
  <a href="http://data04.chiasenhac.com/downloads/1234/5/1233456-abcd/320/Hello.mp3" title="Click vào đây để tải">Download: <span>320kbps</span> 8.10 MB</a>
  <a href="http://data04.chiasenhac.com/downloads/1234/5/1233456-abcd/32/Hello.m4a" title="Click vào đây để tải">Mobile Download: M4A 32kbps 1.20 MB</a>
  <a href="http://chiasenhac.vn/help.html" title="Help">Help</a>
</div>
</body></html>`
