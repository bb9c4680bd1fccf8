package addon

import (
	"fmt"
	"html"

	"mailtothings/internal/card"
	"mailtothings/internal/model"
	"mailtothings/internal/util"
)

const (
	newTodoIconURL  = "https://lh3.googleusercontent.com/DXjzqDwbW7G-y5CxGS5xbwe5_0hYqp9kWQc4dZtDTEK7z2iuaLLPfXjB30A1zmjbpQti5NIpKVglLTy2ayMu9UiwMtqBvnsGSdyWv0OoyNU9CVpF01xEeAHSbqOf6v2I0-RKJU75daEGD6eVPu-1A3-ruTY68d8_-y3Cec4kPiamsbUwI0Pph9dZ6ZyWubUHGgh7a8Rqn7t8JtroNtogbxf58sGuM_rx-3EJHFMkdxvNQvjZBcOo-jOgJHfaaRX2Q8LdjaLN2C61vt2dDUqDHnTNl9ZhhtbPL-ZJutenFd1fBFtnUC09rLPlEx57Q316NPkUVq_4K8RRXRVe8B4-xpVexEwqgWYWaRP1qGvZWRmfkgqdd8MYjCM4Tci4y1HcmTWXtz4hRwef9nQktMmG0mQiI_RmilJSpc5hVJoJQZRwIQMROa6h7nXGzvifP27_oS74BO5DnaVD-FxMrh6TdGT4J-4NnsSISC3fn9sNZFdgjxSVsEwfmJDPRaMfjXCjf8BkiFYgZ0LkWsRZi0A8lMv9l0o_yfVRiAQIRp1unas6Kc3LDseZTabS6pqOHBDaTEr6JornKwL55qZXZ6YxPetpiyqsztaPcdTfiI66HNK5PiSHFo4-rBnAK0OsTXFFshwLvuXf1zkdh3wD3uuRWKQLN3zKwh6jmLrZlesQbwANDQD3WFZlV_bSERFx1m0uWT96vhoTytvocsrsG7rUM2I"
	successIconURL  = "https://lh3.googleusercontent.com/ckVareA4nA-eo44l6UGTbQyhwV4GX2DUrBFbWM7Qkl-Jk9xLtMy9VVE1X54bA1cucSc4XRVk-6h8ECPNie_-WhfK_yZfwNcLfsgfOe3AadzpYFQsLIqRmxLVGpw3MVA8LjCDUbynZyJSRSzG2R1L1OIRTZuuCrI87BrDY262jJxECVn_hqyO9wrtSAAWlqxxWiuZXSQc5tK8L6SsEiGjTppCepvJAxT5ZiKiS_hgoTDuaqutZAQ16AfvUhhe4DYEbU56j9PRq69i3rYUogZRehzn05NCsGUa-qYPQwXYBBmPfqEIdrOtBTfucWcmSD8VFSYlSc2wtV6UIM6MeIb_MpluxukhFWJvqI4jgR1esXlSAXNcYRY2JfZOsk78-BGFXkuu2asotVM0haPS2c37eFImICRoBiyoGK76Uir9ksa140LCd_sPUzGI3HiOwjOWo76WpNivUhNjEXDxBYdfYnCkFj3ZRkY1HlG1ZRH0pSoZmhE5JuXqO5WqwrBBXVUU3TcOAOb50_Gmlq75iQ2QVgr3ziVlQtXy81n51ouioc0jN7f4I0fJ7ohSNaqHP-vtNZhrkLZ2XhbQttpMY8Lo2XuLtAnAVTJ_cY9mjEBnZzk410_iRw7yJTmJBRPEhl1yBAiK0Q61wjgpjGLJAS2lwIJ1D8ppbD7bFq4JWI_2Scg7I1tb_lZziJzDYVhkIz4ZYuTyLfi4PdpVCvTYDhxnMaI"
	successImageURL = "https://lh3.googleusercontent.com/W-E_Oa0bePoX3GdR1snlJgNvPVJ34bYPr-H8ee7pxjZMChILqZTHyttEufsBK21bExmgRIEhTfctqCvanWfkNSyHfEXNRx3HWRTXxqZq-oYUFCHHSecNDZB6fPv-FRqEKucDqte1XxYHVWhdV10rJ2Cn2WgepxZ33Tz0-VOz5eYmj9J6NL542T28oL1WqPFRmixGvGQNjLTP_Td4aPy3pNV0dTK_z4h_jcuvoy_L80XzgNKtvT0Yp_992vuGbd4secTWEPrw0o7r7qExMNqUgOHL2Wkhg_likhAEApp92pdd4nn0nePuR5vHeU0U-CGMIq9a8blBYUV5fGapYVE2i5ZXpcKwKJxY1D62BZKBy5VHv7c-gbppRNOmec4Kz5YMQKSclUhT_He60Y5rNJ54movT7-b2bfA4o5f_3mPOt_vqMB4ONbB10u9SO4cVaF7wZt8AfYMW0yevL8qi9zjgDEKe2MiqgyouzNDE0LD-KJnXNOfTFooDD5SssKUqmGwgcfl077Pfdk6ZCbalh_4jYf-ftWeLJ0AKRyWlLZfK7j6UyiZnFwkVt0DrmCl8tYQqHxLl1mpA0FKets1SriraNdjDdDtFJXTib1FoWpz00u8pebFVmo28XPVL-88wHZou6MbQ0Jx6zOw0pG04XliWA-iKXVS5Q-JqSUfHYGIQzLlBplIL7dKmYG0PdslsdLTcjIZGvTo1qWfN1ITC79EL7c4"
	settingsIconURL = "https://lh3.googleusercontent.com/mFGO91FrZ32SkIym9SWwafTRzgQYdZGucjBovepIi59s8c-H076kWYANgbhqDQfB6YsBCQ-G9ML76bvDGnknFP24iBHC4oSFmSD1YAhM6VGOMrc1V1MCxzvpbfO44VJMk7ZFboJzJyFe2f1Kzur4kEqpsoGcVOgaeDO7WvptQIe6dj_MjteFPazk7AeDniZfalHv5yLGfJhJzbwqUwweCnEwiXvITq504pmoM3zfuRog3oGTadVJoXbGQh9ga1YWxywzKspwoLLU_jwYR7uc7J7AEn7hux4H-8m2-ksd_KvH9o2X7AGeoAHygQ3XEHb6EcQ1B-aVYzWcdpCt-FgRwntjuRJBoBWX9I_h1iWAe9eSCUZxb_2PX1c2pGHekSpVsYkbHUNM5VvKBzmKRFobyXXslLckRz_M16IEdxr9cVsZ5kMoEf7B6Fk3kjjo28yevH1n1AUmLLOWycB0UQeLT2IepBP5Npr3l2hAspkrx87tguBf_Vr6D0_ZHTKYpKRf3WTjwSZHWWM3kZxQw1T4fovdfMPtra56T-ELsv2PPchU8Qjt5s0FFu3NAnA7A5t9zKujrqYnuuM7ftQrA2YXC10HhWbUtLu7PhShGKW6b04PyaSKKhcRSpNtEHDwzcEYcla1PnMOrrHPSUEvar4NL9CTBAX4gc35dknh1ItXrkNPdcPfjs6PrL8kOGtP8XF_keD4b8PNJgfE3jccmMnYf1g"

	// LogoURL is the add-on icon shown in the Gmail side panel.
	LogoURL = newTodoIconURL

	thingsSupportURL = "https://culturedcode.com/things/support/articles/2908262/"
)

// Form field names.
const (
	fieldComments = "comments"
	fieldEmail    = PropEmail
)

// buildNewToDoCard previews the selected message and collects optional notes.
func (a *App) buildNewToDoCard(msg model.Message) card.Card {
	todo := html.EscapeString(util.Truncate(msg.Subject, util.SubjectPreviewLen))
	notes := html.EscapeString(util.CleanBody(util.Truncate(msg.PlainBody, util.BodyPreviewLen)))

	return card.Card{
		Header: &card.Header{Title: "New To-Do", ImageURL: newTodoIconURL},
		Sections: []card.Section{
			{Widgets: []card.Widget{
				card.Paragraph(fmt.Sprintf("<b>%s</b>", todo)),
				card.Paragraph(fmt.Sprintf(`<font color="#777777">%s</font>`, notes)),
			}},
			{Widgets: []card.Widget{
				card.Input(fieldComments, "Add notes or comments", ""),
				card.TextButton("Create To-Do", a.action(OnCreateTodoClicked)),
			}},
		},
	}
}

func buildSuccessCard() card.Card {
	return card.Card{
		Header: &card.Header{Title: "To-Do sent to Things successfully", ImageURL: successIconURL},
		Sections: []card.Section{{Widgets: []card.Widget{
			card.ImageWidget(successImageURL),
			card.Paragraph(`<font color="#777777">If you don't see the new To-Do in your Things Inbox, check your Mail to Things configuration and verify your Mail to Things e-mail address is correct in Settings</font>`),
		}}},
	}
}

// buildSettingsCard shows the stored address, or an empty field when unset.
func (a *App) buildSettingsCard(current string) card.Card {
	return card.Card{
		Header: &card.Header{Title: "<b>Settings</b>", ImageURL: settingsIconURL, ImageType: card.ImageCircle},
		Sections: []card.Section{
			{Widgets: []card.Widget{
				card.Paragraph(`Please see the <a href="` + thingsSupportURL + `">Things support documentation</a> on enabling Mail to Things and obtaining the <i>@things.email</i> e-mail address.`),
			}},
			{Widgets: []card.Widget{
				card.Input(fieldEmail, "Mail to Things Email Address", current),
				card.TextButton("Save", a.action(OnSettingsSaveClicked)),
			}},
		},
	}
}
