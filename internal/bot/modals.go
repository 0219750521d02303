package bot

import (
	"github.com/bwmarrin/discordgo"
)

// Component identifiers shared by commands, buttons and modals.
const (
	CommandSendEmbed     = "enviar_embed"
	CommandSendSaleEmbed = "enviar_embed_venda"
	CommandCollection    = "coleta"
	CommandSale          = "venda"

	ButtonCollection = "registrar_coleta"
	ButtonSale       = "registrar_venda"

	ModalCollection = "coleta_modal"
	ModalSale       = "venda_modal"

	FieldName        = "nome"
	FieldUserID      = "usuario_id"
	FieldBoxes       = "caixas"
	FieldDescription = "descricao"
	FieldDelivered   = "entregue"
	FieldAmount      = "valor"
)

// Commands returns the slash commands of the bot.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: CommandSendEmbed, Description: "Envia embed de coleta"},
		{Name: CommandSendSaleEmbed, Description: "Envia embed de venda"},
		{Name: CommandCollection, Description: "Registrar uma coleta"},
		{Name: CommandSale, Description: "Registrar uma venda de munição"},
	}
}

func textInput(customID, label string, style discordgo.TextInputStyle) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID: customID,
				Label:    label,
				Style:    style,
				Required: true,
			},
		},
	}
}

func collectionModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: ModalCollection,
			Title:    "Registrar Coleta",
			Components: []discordgo.MessageComponent{
				textInput(FieldName, "Nome", discordgo.TextInputShort),
				textInput(FieldUserID, "ID", discordgo.TextInputShort),
				textInput(FieldBoxes, "Quantidade de Caixas", discordgo.TextInputShort),
			},
		},
	}
}

func saleModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: ModalSale,
			Title:    "Registrar Venda de Munição",
			Components: []discordgo.MessageComponent{
				textInput(FieldName, "Nome", discordgo.TextInputShort),
				textInput(FieldUserID, "ID", discordgo.TextInputShort),
				textInput(FieldDescription, "Descrição da Venda", discordgo.TextInputParagraph),
				textInput(FieldDelivered, "Venda entregue? (Sim/Não)", discordgo.TextInputShort),
				textInput(FieldAmount, "Valor total da venda (número)", discordgo.TextInputShort),
			},
		},
	}
}

func collectionEmbedMessage() *discordgo.MessageSend {
	return registrationMessage(&discordgo.MessageEmbed{
		Title:       "**REGISTRO DE COLETAS**",
		Description: "Clique no botão abaixo para registrar sua coleta!",
		Color:       colorGold,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: "https://cdn-icons-png.flaticon.com/512/684/684908.png"},
		Footer:      &discordgo.MessageEmbedFooter{Text: "Sistema automatizado de registro"},
	}, "REGISTRAR COLETA", ButtonCollection)
}

func saleEmbedMessage() *discordgo.MessageSend {
	return registrationMessage(&discordgo.MessageEmbed{
		Title:       "**REGISTRO DE VENDAS**",
		Description: "Clique no botão abaixo para registrar sua venda!",
		Color:       colorGold,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Sistema automatizado de registro"},
	}, "REGISTRAR VENDA", ButtonSale)
}

func registrationMessage(embed *discordgo.MessageEmbed, label, customID string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: label, Style: discordgo.SuccessButton, CustomID: customID},
				},
			},
		},
	}
}

// ModalValues flattens the text inputs of a submitted modal into a map keyed by their custom identifiers.
func ModalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	var walk func(components []discordgo.MessageComponent)
	walk = func(components []discordgo.MessageComponent) {
		for _, c := range components {
			switch v := c.(type) {
			case *discordgo.ActionsRow:
				walk(v.Components)
			case discordgo.ActionsRow:
				walk(v.Components)
			case *discordgo.TextInput:
				values[v.CustomID] = v.Value
			case discordgo.TextInput:
				values[v.CustomID] = v.Value
			}
		}
	}
	walk(data.Components)
	return values
}
