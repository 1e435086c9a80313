package parser

import (
	"errors"
	"testing"

	"github.com/gauravRathod674/OtakuRealm/source"
	. "github.com/smartystreets/goconvey/convey"
)

const mangaHomePage = `<html><body>
<div class="deslide-wrap"><div class="swiper-slide">
  <a class="deslide-cover" href="/solo-leveling-2"><img src="https://img/solo.jpg"></a>
  <div class="desi-sub-text">Chapter 200</div>
  <div class="desi-head-title"><a href="/solo-leveling-2">Solo   Leveling</a></div>
  <div class="scd-item mb-3">Ten years ago, gates opened.</div>
  <div class="scd-genres"><a href="/genre/action">Action</a><a href="/genre/fantasy">Fantasy</a></div>
</div></div>
<div id="manga-trending">
  <div class="swiper-slide"><div class="manga-poster"><img src="t1.jpg"></div>
    <div class="mp-desc"><p class="alias-name"><strong>Berserk</strong></p><p>9.4</p><p>EN</p><p><a href="/read/berserk/en/chapter-374">Chap 374</a></p></div></div>
  <div class="swiper-slide"><div class="manga-poster"><img src="t2.jpg"></div>
    <div class="mp-desc"><p class="alias-name"><strong>Vagabond</strong></p><p>9.1</p></div></div>
</div>
<div id="manga-featured"><div class="swiper-slide"><div class="manga-poster"><img src="f1.jpg"></div>
  <div class="mp-desc"><p class="alias-name"><strong>Monster</strong></p><p>9.0</p></div>
  <div class="fd-infor"><a href="/genre/mystery">Mystery</a></div></div></div>
<section class="block_area block_area_home"><div class="item">
  <a class="manga-poster" href="/one-piece-3"><img src="op.jpg"></a>
  <div class="manga-detail"><h3 class="manga-name"><a href="/one-piece-3">One Piece</a></h3>
  <div class="fd-infor"><span class="fdi-item fdi-cate"><a>Action</a><a>Adventure</a></span></div>
  <div class="fd-list"><a href="/read/one-piece-3/en/chapter-1120">Chap 1120</a></div></div>
</div></section>
<div id="chart-today"><ul class="ulclear"><li class="item-top">
  <img src="c1.jpg"><h3 class="manga-name"><a>Blue Lock</a></h3>
  <span class="fdi-cate"><a>Sports</a></span><span class="fdi-view">12,345</span>
  <span class="fdi-chapter"><a href="/read/blue-lock/en/chapter-290">Chap 290</a></span>
</li></ul></div>
<div id="featured-04"><div class="swiper-slide"><div class="mg-item-basic">
  <div class="manga-poster"><img src="d1.jpg"></div>
  <div class="manga-detail"><h3 class="manga-name"><a>Death Note</a></h3>
  <p><i class="fa fa-star"></i> 8.9</p><p><a href="/read/death-note/en/chapter-108">Chap 108</a></p>
  <div class="fd-infor"><a>Thriller</a></div></div>
</div></div></div>
<div class="c_b-list">
  <div class="cbl-row"><div class="item"><a href="/type/manga">Manga</a></div></div>
  <div class="cbl-row"><div class="item"><a href="/genre/action">Action</a></div><div class="item item-more"><a>+ More</a></div></div>
</div>
</body></html>`

func TestMangaHome(t *testing.T) {
	Convey("Given the manga landing page", t, func() {
		record, err := Default.Parse(source.KindMangaHome, mangaHomePage)
		So(err, ShouldBeNil)
		So(record.IsPartial(), ShouldBeFalse)

		Convey("The slider should carry genres as links", func() {
			slides := record.Records("image_slider")
			So(slides, ShouldHaveLength, 1)
			So(slides[0].String("manga_title"), ShouldEqual, "Solo Leveling")
			So(slides[0].String("url"), ShouldEqual, "https://manganow.to/solo-leveling-2")
			So(slides[0].Records("genres")[1].String("name"), ShouldEqual, "Fantasy")
		})

		Convey("Trending cards should be numbered from one", func() {
			cards := record.Records("trending")
			So(cards, ShouldHaveLength, 2)
			So(cards[0]["card_no"], ShouldEqual, 1)
			So(cards[1]["card_no"], ShouldEqual, 2)
			So(cards[0].String("rating"), ShouldEqual, "9.4")
			So(cards[0].String("chapter_link"), ShouldEqual, "https://manganow.to/read/berserk/en/chapter-374")
			So(cards[1].String("chapter"), ShouldBeEmpty)
		})

		Convey("Sections below the fold should be read", func() {
			So(record.Records("recommended")[0].Records("genres")[0].String("name"), ShouldEqual, "Mystery")
			So(record.Records("latest_update")[0].Strings("genres"), ShouldResemble, []string{"Action", "Adventure"})
			So(record.Records("latest_update")[0].Records("chapters"), ShouldHaveLength, 1)

			charts := record.Record("most_viewed")
			So(charts.Records("today")[0].String("view_count"), ShouldEqual, "12,345")
			So(charts.Records("week"), ShouldBeEmpty)

			completed := record.Records("completed")[0]
			So(completed.String("manga_title"), ShouldEqual, "Death Note")
			So(completed.String("rating"), ShouldEqual, "8.9")
		})

		Convey("Only the second category row should give genres", func() {
			genres := record.Records("genres")
			So(genres, ShouldHaveLength, 1)
			So(genres[0].String("name"), ShouldEqual, "Action")
		})
	})

	Convey("A landing page without the slider should be partial", t, func() {
		record, err := Default.Parse(source.KindMangaHome, `<div id="manga-trending"></div>`)
		So(err, ShouldBeNil)
		So(record.Strings(source.MissingField), ShouldResemble, []string{"image_slider", "trending"})
	})

	Convey("An unrelated page should be malformed", t, func() {
		_, err := Default.Parse(source.KindMangaHome, `<div id="anime-trending"></div>`)
		So(errors.Is(err, ErrMalformedPage), ShouldBeTrue)
	})
}

func TestMangaRecommendations(t *testing.T) {
	Convey("Cards without a title should be skipped", t, func() {
		record, err := Default.Parse(source.KindMangaRecommendations, `<div class="mls-wrap">
<div class="item item-spc"><a class="manga-poster" href="/monster-7"><img class="manga-poster-img" src="m.jpg"></a>
  <h3 class="manga-name">Monster</h3><span class="fdi-cate"><a><span>Mystery</span></a><a><span>Drama</span></a></span></div>
<div class="item item-spc"><a class="manga-poster" href="/x"></a></div>
</div>`)
		So(err, ShouldBeNil)

		cards := record.Records("recommendations")
		So(cards, ShouldHaveLength, 1)
		So(cards[0].String("url"), ShouldEqual, "https://manganow.to/monster-7")
		So(cards[0].String("cover"), ShouldEqual, "m.jpg")
		So(cards[0].Strings("genres"), ShouldResemble, []string{"Mystery", "Drama"})
	})

	Convey("An empty listing is still a listing", t, func() {
		record, err := Default.Parse(source.KindMangaRecommendations, `<div class="mls-wrap"></div>`)
		So(err, ShouldBeNil)
		So(record.Records("recommendations"), ShouldBeEmpty)
	})
}
